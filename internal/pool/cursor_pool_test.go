package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/adjacency"
)

type oddFilter struct{}

func (oddFilter) ToFilteredNodeID(root int64) int64 {
	if root%2 == 1 {
		return root / 2
	}
	return adjacency.NotFound
}

func newList(t *testing.T) *adjacency.List {
	t.Helper()
	b, err := adjacency.NewBuilder(8, adjacency.WithPropertyCount(1))
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{1, 2, 3, 5, 6}, []float64{1, 2, 3, 4, 5}))
	require.NoError(t, b.Add(4, []int64{7}, []float64{9}))
	l, err := b.Build()
	require.NoError(t, err)
	return l
}

func drain(c adjacency.Cursor) []int64 {
	var out []int64
	for c.HasNext() {
		out = append(out, c.NextID())
	}
	return out
}

func TestCursors(t *testing.T) {
	l := newList(t)

	c := Get()
	defer Put(c)

	assert.Equal(t, []int64{1, 2, 3, 5, 6}, drain(c.AdjacencyCursor(l, 0)))
	assert.Equal(t, []int64{0, 1, 2}, drain(c.FilteredCursor(l, 0, oddFilter{})))
	assert.Empty(t, drain(c.AdjacencyCursor(l, 1)))
}

func TestCursorsReleasePages(t *testing.T) {
	l := newList(t)

	c := Get()
	a := c.AdjacencyCursor(l, 0)
	require.Equal(t, 1, a.PropertyCount())
	c.FilteredCursor(l, 0, oddFilter{})
	Put(c)

	assert.False(t, a.HasNext())
	assert.Equal(t, 0, a.Degree())
	assert.Equal(t, 0, a.PropertyCount())
	assert.False(t, c.Filtered.HasNext())
}

func TestCursorsConcurrent(t *testing.T) {
	l := newList(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c := Get()
				assert.Equal(t, []int64{7}, drain(c.AdjacencyCursor(l, 4)))
				Put(c)
			}
		}()
	}
	wg.Wait()
}
