package paged

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/errs"
)

func collect(c *Cursor[int64]) ([]int64, []int64) {
	var values, bases []int64
	for c.Next() {
		bases = append(bases, c.Base)
		for i := c.Offset; i < c.Limit; i++ {
			values = append(values, c.Array[i])
		}
	}
	return values, bases
}

func newSequence(t *testing.T, size int64, pageSize int) *Array[int64] {
	t.Helper()
	a, err := New[int64](size, WithPageSize(pageSize))
	require.NoError(t, err)
	a.SetAll(func(i int64) int64 { return i })
	return a
}

func TestCursorFullRange(t *testing.T) {
	a := newSequence(t, 10, 4)
	values, bases := collect(a.NewCursor())
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, values)
	assert.Equal(t, []int64{0, 4, 8}, bases)
}

func TestCursorSubRange(t *testing.T) {
	a := newSequence(t, 10, 4)

	var c Cursor[int64]
	_, err := a.InitCursorRange(&c, 3, 9)
	require.NoError(t, err)

	require.True(t, c.Next())
	assert.Equal(t, 3, c.Offset)
	assert.Equal(t, 4, c.Limit)
	assert.Equal(t, int64(0), c.Base)

	require.True(t, c.Next())
	assert.Equal(t, 0, c.Offset)
	assert.Equal(t, 4, c.Limit)

	require.True(t, c.Next())
	assert.Equal(t, 0, c.Offset)
	assert.Equal(t, 1, c.Limit)
	assert.Equal(t, int64(8), c.Base)

	assert.False(t, c.Next())
	assert.Equal(t, int64(3), c.Start())
	assert.Equal(t, int64(9), c.End())
}

func TestCursorReuse(t *testing.T) {
	a := newSequence(t, 20, 8)
	c := a.NewCursor()
	_, _ = collect(c)

	_, err := a.InitCursorRange(c, 15, 17)
	require.NoError(t, err)
	values, _ := collect(c)
	assert.Equal(t, []int64{15, 16}, values)

	a.InitCursor(c)
	values, _ = collect(c)
	assert.Len(t, values, 20)
}

func TestCursorEmptyRange(t *testing.T) {
	a := newSequence(t, 10, 4)
	var c Cursor[int64]
	_, err := a.InitCursorRange(&c, 5, 5)
	require.NoError(t, err)
	assert.False(t, c.Next())

	empty, err := New[int64](0)
	require.NoError(t, err)
	assert.False(t, empty.NewCursor().Next())
}

func TestCursorInvalidRange(t *testing.T) {
	a := newSequence(t, 10, 4)
	var c Cursor[int64]

	_, err := a.InitCursorRange(&c, 6, 2)
	require.ErrorIs(t, err, errs.ErrMalformedRange)

	_, err = a.InitCursorRange(&c, -1, 2)
	require.ErrorIs(t, err, errs.ErrMalformedRange)

	_, err = a.InitCursorRange(&c, 0, 11)
	require.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestCursorPageAligned(t *testing.T) {
	a := newSequence(t, 8, 4)
	var c Cursor[int64]
	_, err := a.InitCursorRange(&c, 4, 8)
	require.NoError(t, err)

	require.True(t, c.Next())
	assert.Equal(t, 0, c.Offset)
	assert.Equal(t, 4, c.Limit)
	assert.Equal(t, int64(4), c.Base)
	assert.False(t, c.Next())
}
