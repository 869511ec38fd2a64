package adjacency

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/internal/resource"
)

func drain(c Cursor) []int64 {
	var out []int64
	for c.HasNext() {
		out = append(out, c.NextID())
	}
	return out
}

func TestBlockRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		targets []int64
	}{
		{"Duplicates", []int64{2, 5, 5, 9}},
		{"Single", []int64{0}},
		{"LargeGaps", []int64{1, 300, 70_000, 1 << 40}},
		{"AllEqual", []int64{7, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := EncodeBlock(tt.targets)
			require.Len(t, block, encodedTargetBytes(tt.targets))
			assert.Equal(t, len(tt.targets), readDegree(block))
			assert.Equal(t, tt.targets, DecodeBlock(block))
		})
	}

	assert.Nil(t, EncodeBlock(nil))
	assert.Nil(t, DecodeBlock([]byte{1}))
}

func TestListDuplicatesKept(t *testing.T) {
	b, err := NewBuilder(10)
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{2, 5, 5, 9}))

	l, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 4, l.Degree(0))
	assert.Equal(t, []int64{2, 5, 5, 9}, drain(l.Cursor(0, nil)))
	assert.Equal(t, int64(4), l.RelationshipCount())
	assert.Equal(t, 4, l.MaxDegree())
}

func TestListRoundTripRandom(t *testing.T) {
	const nodeCount = 2000
	rng := rand.New(rand.NewPCG(7, 11))

	b, err := NewBuilder(nodeCount, WithPageBytes(256))
	require.NoError(t, err)

	expected := make([][]int64, nodeCount)
	for node := range int64(nodeCount) {
		degree := rng.IntN(40)
		if node%97 == 0 {
			degree = 500 // oversized blocks
		}
		targets := make([]int64, degree)
		for i := range targets {
			targets[i] = rng.Int64N(nodeCount)
		}
		slices.Sort(targets)
		expected[node] = targets
		require.NoError(t, b.Add(node, targets))
	}

	l, err := b.Build()
	require.NoError(t, err)

	c := l.NewCursor()
	var total int64
	for node := range int64(nodeCount) {
		require.Equal(t, len(expected[node]), l.Degree(node))
		got := drain(l.InitCursor(c, node))
		if len(expected[node]) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, expected[node], got)
		}
		total += int64(len(expected[node]))
	}
	assert.Equal(t, total, l.RelationshipCount())
	assert.Positive(t, l.SizeOf())
	require.NoError(t, l.Release())
}

func TestListEmptyNode(t *testing.T) {
	b, err := NewBuilder(3)
	require.NoError(t, err)
	require.NoError(t, b.Add(1, []int64{0, 2}))
	require.NoError(t, b.Add(2, nil))
	l, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, Empty, l.Cursor(0, nil))
	assert.Equal(t, 0, l.Degree(2))

	reuse := l.NewCursor()
	c := l.Cursor(0, reuse)
	assert.False(t, c.HasNext())
	assert.Equal(t, 0, c.Degree())

	c = l.Cursor(1, reuse)
	assert.Equal(t, []int64{0, 2}, drain(c))

	assert.Equal(t, NotFound, Empty.NextID())
	assert.Equal(t, NotFound, Empty.PeekID())
	assert.True(t, math.IsNaN(Empty.Property(0)))
}

func TestCursorNavigation(t *testing.T) {
	b, err := NewBuilder(100)
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{3, 10, 10, 20, 50}))
	l, err := b.Build()
	require.NoError(t, err)

	c := l.InitCursor(l.NewCursor(), 0)
	assert.Equal(t, 5, c.Remaining())
	assert.Equal(t, int64(3), c.PeekID())
	assert.Equal(t, int64(3), c.PeekID())
	assert.Equal(t, 5, c.Remaining())
	assert.Equal(t, int64(3), c.NextID())

	assert.Equal(t, int64(20), c.SkipUntil(10))
	assert.Equal(t, 1, c.Remaining())
	assert.Equal(t, NotFound, c.SkipUntil(50))
	assert.False(t, c.HasNext())
	assert.Equal(t, NotFound, c.PeekID())

	l.InitCursor(c, 0)
	assert.Equal(t, int64(10), c.AdvanceTo(10))
	assert.Equal(t, int64(10), c.NextID())
	assert.Equal(t, int64(50), c.AdvanceTo(21))
	assert.Equal(t, NotFound, c.AdvanceTo(0))
}

func TestBuilderValidation(t *testing.T) {
	b, err := NewBuilder(5, WithPropertyCount(1))
	require.NoError(t, err)

	require.ErrorIs(t, b.Add(5, nil, nil), errs.ErrOutOfRange)
	require.ErrorIs(t, b.Add(0, []int64{1}), errs.ErrInvalidInput)
	require.ErrorIs(t, b.Add(0, []int64{1}, []float64{}), errs.ErrInvalidInput)
	require.ErrorIs(t, b.Add(0, []int64{3, 1}, []float64{1, 2}), errs.ErrInvalidInput)
	require.ErrorIs(t, b.Add(0, []int64{1, 7}, []float64{1, 2}), errs.ErrOutOfRange)

	require.NoError(t, b.Add(0, []int64{1}, []float64{1}))
	require.ErrorIs(t, b.Add(0, []int64{1}, []float64{1}), errs.ErrInvalidInput)

	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	require.ErrorIs(t, err, errs.ErrUnsupported)
	require.ErrorIs(t, b.Add(1, nil, nil), errs.ErrUnsupported)

	_, err = NewBuilder(-1)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestListProperties(t *testing.T) {
	b, err := NewBuilder(10, WithPropertyCount(2), WithPropertyFallback(-1))
	require.NoError(t, err)
	require.NoError(t, b.Add(4, []int64{1, 2, 8}, []float64{0.5, 1.5, 2.5}, []float64{10, 20, 30}))
	l, err := b.Build()
	require.NoError(t, err)

	c := l.InitCursor(l.NewCursor(), 4)
	assert.Equal(t, 2, c.PropertyCount())
	assert.Equal(t, -1.0, c.Property(0))

	require.Equal(t, int64(1), c.NextID())
	assert.Equal(t, 0.5, c.Property(0))
	assert.Equal(t, 10.0, c.Property(1))
	assert.Equal(t, -1.0, c.Property(2))

	require.Equal(t, int64(8), c.AdvanceTo(5))
	assert.Equal(t, 2.5, c.Property(0))
	assert.Equal(t, 30.0, c.Property(1))

	pc := l.PropertyCursor(4, 1, 0, nil)
	var values []float64
	for pc.HasNext() {
		values = append(values, pc.NextProperty())
	}
	assert.Equal(t, []float64{10, 20, 30}, values)

	pc = l.PropertyCursor(4, 5, 42, pc)
	assert.Equal(t, 3, pc.Remaining())
	assert.Equal(t, 42.0, pc.NextProperty())

	pc = l.PropertyCursor(0, 0, 42, pc)
	assert.False(t, pc.HasNext())
}

func TestBuilderDeduplicate(t *testing.T) {
	tests := []struct {
		agg  Aggregation
		want []float64
	}{
		{Single, []float64{1, 4, 6}},
		{Sum, []float64{1, 9, 6}},
		{Min, []float64{1, 2, 6}},
		{Max, []float64{1, 4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.agg.String(), func(t *testing.T) {
			b, err := NewBuilder(10,
				WithPropertyCount(1),
				WithDuplicatePolicy(Deduplicate),
				WithAggregation(tt.agg),
			)
			require.NoError(t, err)

			targets := []int64{2, 5, 5, 5, 9}
			props := []float64{1, 4, 2, 3, 6}
			require.NoError(t, b.Add(0, targets, props))
			assert.Equal(t, []int64{2, 5, 5, 5, 9}, targets)

			l, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, 3, l.Degree(0))

			c := l.InitCursor(l.NewCursor(), 0)
			var gotTargets []int64
			var gotProps []float64
			for c.HasNext() {
				gotTargets = append(gotTargets, c.NextID())
				gotProps = append(gotProps, c.Property(0))
			}
			assert.Equal(t, []int64{2, 5, 9}, gotTargets)
			assert.Equal(t, tt.want, gotProps)
		})
	}
}

func TestBuilderConcurrentAdd(t *testing.T) {
	const nodeCount = 4096
	b, err := NewBuilder(nodeCount, WithPageBytes(1024), WithOffHeap(true))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range int64(8) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for node := w; node < nodeCount; node += 8 {
				targets := []int64{node, (node + 1) % nodeCount}
				slices.Sort(targets)
				if err := b.Add(node, targets); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	l, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(2*nodeCount), l.RelationshipCount())

	c := l.NewCursor()
	for node := range int64(nodeCount) {
		want := []int64{node, (node + 1) % nodeCount}
		slices.Sort(want)
		require.Equal(t, want, drain(l.InitCursor(c, node)))
	}
	require.NoError(t, l.Release())
}

func TestListDegreeOf(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	empty, err := b.Build()
	require.NoError(t, err)

	_, err = empty.DegreeOf(0)
	require.ErrorIs(t, err, errs.ErrUnsupported)

	b, err = NewBuilder(2)
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{1}))
	l, err := b.Build()
	require.NoError(t, err)

	d, err := l.DegreeOf(0)
	require.NoError(t, err)
	assert.Equal(t, 1, d)

	_, err = l.DegreeOf(2)
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	var seen []int64
	l.ForEachTarget(0, nil, func(target int64) bool {
		seen = append(seen, target)
		return true
	})
	assert.Equal(t, []int64{1}, seen)
}

func TestEstimateBytes(t *testing.T) {
	lo, hi := EstimateBytes(0, 0, 0, 0)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	lo, hi = EstimateBytes(1_000_000, 10_000_000, 1, 0)
	assert.Positive(t, lo)
	assert.Greater(t, hi, lo)
	assert.GreaterOrEqual(t, lo, int64(10_000_000*9))
}

func TestBuilderRelease(t *testing.T) {
	for _, offHeap := range []bool{false, true} {
		controller := resource.NewController(resource.Config{})
		b, err := NewBuilder(100,
			WithPropertyCount(1),
			WithOffHeap(offHeap),
			WithPageBytes(1<<16),
			WithMemoryTracker(controller),
		)
		require.NoError(t, err)
		require.NoError(t, b.Add(3, []int64{1, 2, 9}, []float64{1, 2, 3}))
		assert.Positive(t, controller.MemoryUsage())

		require.NoError(t, b.Release())
		assert.Equal(t, int64(0), controller.MemoryUsage())
		require.NoError(t, b.Release())

		require.ErrorIs(t, b.Add(4, []int64{1}, []float64{1}), errs.ErrUnsupported)
		_, err = b.Build()
		require.ErrorIs(t, err, errs.ErrUnsupported)
	}
}

func TestBuilderReleaseAfterBuild(t *testing.T) {
	b, err := NewBuilder(10)
	require.NoError(t, err)
	require.NoError(t, b.Add(0, []int64{4, 5}))

	l, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, b.Release())

	assert.Equal(t, []int64{4, 5}, drain(l.Cursor(0, nil)))
	require.NoError(t, l.Release())
}
