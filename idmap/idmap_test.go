package idmap

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

func rangeIDs(from, to int64) []int64 {
	ids := make([]int64, 0, to-from)
	for id := from; id < to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func TestMapLookups(t *testing.T) {
	m, err := New(rangeIDs(100, 110))
	require.NoError(t, err)

	assert.Equal(t, int64(10), m.NodeCount())
	assert.Equal(t, int64(4), m.ToMappedNodeID(104))
	assert.Equal(t, int64(104), m.ToOriginalNodeID(4))
	assert.Equal(t, NotFound, m.ToMappedNodeID(999))
	assert.Equal(t, NotFound, m.ToMappedNodeID(99))
	assert.Equal(t, NotFound, m.ToMappedNodeID(-5))
	assert.Equal(t, NotFound, m.ToOriginalNodeID(10))
	assert.Equal(t, NotFound, m.ToOriginalNodeID(-1))
	assert.True(t, m.Contains(109))
	assert.False(t, m.Contains(110))
	assert.Equal(t, int64(109), m.HighestOriginalID())
}

func TestMapEmpty(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), m.NodeCount())
	assert.Equal(t, NotFound, m.ToMappedNodeID(0))
	assert.Equal(t, NotFound, m.ToOriginalNodeID(0))
	assert.False(t, m.Contains(0))
	assert.Equal(t, NotFound, m.HighestOriginalID())
}

func TestMapValidation(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
	}{
		{"Unsorted", []int64{3, 1, 2}},
		{"Duplicate", []int64{1, 2, 2, 3}},
		{"Negative", []int64{-1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ids)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}

	_, err := FromArray(nil)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestMapRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	seen := make(map[int64]struct{})
	for len(seen) < 5000 {
		seen[rng.Int64N(1_000_000)] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	m, err := New(ids, WithPageBytes(1024))
	require.NoError(t, err)
	require.Equal(t, int64(len(ids)), m.NodeCount())

	for i := int64(0); i < m.NodeCount(); i++ {
		require.Equal(t, i, m.ToMappedNodeID(m.ToOriginalNodeID(i)))
	}
	for _, id := range ids {
		require.Equal(t, id, m.ToOriginalNodeID(m.ToMappedNodeID(id)))
	}
}

func TestMapConcurrentReads(t *testing.T) {
	m, err := New(rangeIDs(0, 10_000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := int64(0); id < 10_000; id++ {
				if m.ToMappedNodeID(id) != id {
					t.Errorf("lookup %d failed", id)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestMapFromArray(t *testing.T) {
	forward := paged.Of[int64](5, 7, 11)
	m, err := FromArray(forward)
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.ToMappedNodeID(11))

	var visited []int64
	m.ForEachNode(func(id int64) bool {
		visited = append(visited, id)
		return id < 1
	})
	assert.Equal(t, []int64{0, 1}, visited)

	var original []int64
	c := m.OriginalIDs()
	for c.Next() {
		original = append(original, c.Array[c.Offset:c.Limit]...)
	}
	assert.Equal(t, []int64{5, 7, 11}, original)
	assert.Positive(t, m.SizeOf())
}

func TestEstimateBytes(t *testing.T) {
	assert.Equal(t, int64(0), EstimateBytes(0, 0, 0))

	dense := EstimateBytes(1000, 999, 0)
	sparse := EstimateBytes(1000, 1_000_000, 0)
	assert.Positive(t, dense)
	assert.Greater(t, sparse, dense)
}

func TestMapHugeExternalIDs(t *testing.T) {
	ids := []int64{3, 1 << 45, 1<<60 + 7}

	var (
		m   *Map
		err error
	)
	require.NotPanics(t, func() { m, err = New(ids) })
	require.NoError(t, err)

	assert.False(t, m.DirectLookup())
	assert.Equal(t, int64(3), m.NodeCount())
	assert.Equal(t, int64(1<<60+7), m.HighestOriginalID())
	for i, id := range ids {
		assert.Equal(t, int64(i), m.ToMappedNodeID(id))
		assert.Equal(t, id, m.ToOriginalNodeID(int64(i)))
		assert.True(t, m.Contains(id))
	}
	assert.Equal(t, NotFound, m.ToMappedNodeID(4))
	assert.Equal(t, NotFound, m.ToMappedNodeID(1<<60+8))
	assert.Equal(t, NotFound, m.ToMappedNodeID(-1))
	assert.False(t, m.Contains(1<<45+1))
	assert.Equal(t, paged.EstimateBytes(3, 8, 0), EstimateBytes(3, 1<<60+7, 0))
}

func TestMapDirectLookupThreshold(t *testing.T) {
	dense, err := New(rangeIDs(0, 1000))
	require.NoError(t, err)
	assert.True(t, dense.DirectLookup())

	// 4096 ids per page: a single node far out needs more pages than the
	// direct threshold allows.
	sparse, err := New([]int64{0, minDirectPages * 4096 * 2})
	require.NoError(t, err)
	assert.False(t, sparse.DirectLookup())
	assert.Equal(t, int64(1), sparse.ToMappedNodeID(minDirectPages*4096*2))
}

func TestMapMemoryTracking(t *testing.T) {
	tracker := &countingTracker{}
	m, err := New(rangeIDs(10, 20), WithMemoryTracker(tracker))
	require.NoError(t, err)
	assert.True(t, m.DirectLookup())
	// One forward page, one backward page and a single page-table entry.
	assert.Equal(t, int64(2*paged.DefaultPageBytes+8), tracker.used)

	m.Release()
	assert.Equal(t, int64(0), tracker.used)

	limited := &countingTracker{limit: 64 * 1024}
	_, err = New(rangeIDs(0, 5000), WithMemoryTracker(limited))
	require.ErrorIs(t, err, errs.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), limited.used)
}

type countingTracker struct {
	used  int64
	limit int64
}

func (c *countingTracker) AcquireMemory(bytes int64) error {
	if c.limit > 0 && c.used+bytes > c.limit {
		return errs.ErrMemoryLimitExceeded
	}
	c.used += bytes
	return nil
}

func (c *countingTracker) ReleaseMemory(bytes int64) { c.used -= bytes }
