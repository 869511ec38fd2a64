package adjacency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evenFilter keeps even root ids and maps id to id/2.
type evenFilter struct{}

func (evenFilter) ToFilteredNodeID(rootID int64) int64 {
	if rootID%2 != 0 {
		return NotFound
	}
	return rootID / 2
}

func TestFilteredCursor(t *testing.T) {
	b, err := NewBuilder(20, WithPropertyCount(1))
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{1, 2, 3, 4, 4, 9, 12}, []float64{1, 2, 3, 4, 5, 6, 7}))
	l, err := b.Build()
	require.NoError(t, err)

	f := NewFilteredCursor(l.Cursor(0, nil), evenFilter{})
	assert.Equal(t, 7, f.Degree())
	assert.Equal(t, 1, f.PropertyCount())

	assert.Equal(t, int64(1), f.PeekID())
	assert.True(t, f.HasNext())
	assert.Equal(t, int64(1), f.NextID())
	assert.Equal(t, 2.0, f.Property(0))

	require.True(t, f.HasNext())
	assert.Equal(t, 2.0, f.Property(0))
	assert.Equal(t, int64(2), f.NextID())
	assert.Equal(t, 4.0, f.Property(0))

	assert.Equal(t, int64(6), f.SkipUntil(2))
	assert.Equal(t, 7.0, f.Property(0))
	assert.False(t, f.HasNext())
	assert.Equal(t, NotFound, f.NextID())

	f.Init(l.Cursor(0, nil), evenFilter{})
	assert.Equal(t, int64(2), f.AdvanceTo(2))
	assert.Equal(t, []int64{2, 6}, drain(f))

	f.Init(Empty, evenFilter{})
	assert.False(t, f.HasNext())
	assert.Equal(t, NotFound, f.AdvanceTo(0))
}

func TestFilteredCursorPropertyBeforeFirstTarget(t *testing.T) {
	b, err := NewBuilder(20, WithPropertyCount(1), WithPropertyFallback(-1))
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{1, 2}, []float64{10, 20}))
	l, err := b.Build()
	require.NoError(t, err)

	f := NewFilteredCursor(l.Cursor(0, nil), evenFilter{})
	assert.Equal(t, -1.0, f.Property(0))

	// peeking consumes the skipped odd target from the inner cursor
	assert.Equal(t, int64(1), f.PeekID())
	assert.Equal(t, -1.0, f.Property(0))

	assert.Equal(t, int64(1), f.NextID())
	assert.Equal(t, 20.0, f.Property(0))
	assert.Equal(t, -1.0, f.Property(3))

	f.Init(l.Cursor(0, nil), evenFilter{})
	assert.Equal(t, -1.0, f.Property(0))
}

func TestDecompressingCursorReset(t *testing.T) {
	b, err := NewBuilder(10, WithPropertyCount(1))
	require.NoError(t, err)
	require.NoError(t, b.Add(2, []int64{3, 4}, []float64{1, 2}))
	l, err := b.Build()
	require.NoError(t, err)

	c := l.InitCursor(NewDecompressingCursor(), 2)
	require.Equal(t, 1, c.PropertyCount())
	c.Reset()

	assert.False(t, c.HasNext())
	assert.Equal(t, 0, c.Degree())
	assert.Equal(t, 0, c.PropertyCount())
	assert.Nil(t, c.props[:1][0])
	assert.Equal(t, []int64{3, 4}, drain(l.InitCursor(c, 2)))
}
