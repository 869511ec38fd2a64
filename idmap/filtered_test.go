package idmap

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/errs"
)

func TestFilteredTranslation(t *testing.T) {
	root, err := New(rangeIDs(100, 110))
	require.NoError(t, err)

	f, err := FilterIDs(root, []int64{7, 2, 5, 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), f.NodeCount())
	assert.Same(t, root, f.Root())

	assert.Equal(t, int64(2), f.ToRootNodeID(0))
	assert.Equal(t, int64(5), f.ToRootNodeID(1))
	assert.Equal(t, int64(7), f.ToRootNodeID(2))
	assert.Equal(t, NotFound, f.ToRootNodeID(3))

	assert.Equal(t, int64(1), f.ToFilteredNodeID(5))
	assert.Equal(t, NotFound, f.ToFilteredNodeID(4))
	assert.True(t, f.ContainsRootNodeID(7))
	assert.False(t, f.ContainsRootNodeID(-1))

	assert.Equal(t, int64(2), f.ToMappedNodeID(107))
	assert.Equal(t, NotFound, f.ToMappedNodeID(103))
	assert.Equal(t, NotFound, f.ToMappedNodeID(999))
	assert.Equal(t, int64(105), f.ToOriginalNodeID(1))
	assert.True(t, f.Contains(102))
	assert.False(t, f.Contains(101))
}

func TestFilteredRoundTrip(t *testing.T) {
	root, err := New(rangeIDs(0, 1000))
	require.NoError(t, err)

	bm := roaring64.New()
	for i := uint64(0); i < 1000; i += 7 {
		bm.Add(i)
	}
	f, err := NewFiltered(root, bm)
	require.NoError(t, err)

	for i := int64(0); i < f.NodeCount(); i++ {
		require.Equal(t, i, f.ToFilteredNodeID(f.ToRootNodeID(i)))
		require.Equal(t, i*7, f.ToOriginalNodeID(i))
	}
	assert.Positive(t, f.SizeOf())
}

func TestFilteredValidation(t *testing.T) {
	root, err := New(rangeIDs(0, 5))
	require.NoError(t, err)

	_, err = FilterIDs(root, []int64{1, 5})
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = FilterIDs(root, []int64{-2})
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = NewFiltered(nil, roaring64.New())
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	empty, err := FilterIDs(root, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.NodeCount())
	assert.Equal(t, NotFound, empty.ToMappedNodeID(1))
}
