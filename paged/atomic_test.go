package paged

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicInt64ArrayConcurrentAdd(t *testing.T) {
	a, err := NewAtomicInt64(10, WithPageSize(4))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				a.AddTo(int64(i%10), 1)
			}
		}()
	}
	wg.Wait()

	for i := int64(0); i < 10; i++ {
		assert.Equal(t, int64(800), a.Get(i))
	}
}

func TestAtomicInt64ArrayOps(t *testing.T) {
	a, err := NewAtomicInt64(4)
	require.NoError(t, err)

	a.Set(1, 5)
	assert.Equal(t, int64(5), a.GetAndAdd(1, 2))
	assert.Equal(t, int64(7), a.Get(1))

	assert.False(t, a.CompareAndSwap(1, 5, 0))
	assert.True(t, a.CompareAndSwap(1, 7, 0))

	assert.Equal(t, int64(0), a.CompareAndExchange(1, 0, 3))
	assert.Equal(t, int64(3), a.CompareAndExchange(1, 0, 4))

	assert.Equal(t, int64(6), a.Update(1, func(v int64) int64 { return v * 2 }))

	a.Fill(-1)
	assert.Equal(t, int64(-1), a.Get(3))
	assert.Equal(t, int64(4), a.Size())
}

func TestAtomicFloat64Array(t *testing.T) {
	a, err := NewAtomicFloat64(3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				a.AddTo(2, 0.5)
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 1000.0, a.Get(2), 1e-9)

	a.Set(0, 1.5)
	assert.True(t, a.CompareAndSwap(0, 1.5, 2.5))
	assert.InDelta(t, 5.0, a.Update(0, func(v float64) float64 { return v * 2 }), 1e-12)
}

func TestSparseAtomicInt64Array(t *testing.T) {
	s, err := NewSparseAtomicInt64(1<<12, -1, WithPageSize(128))
	require.NoError(t, err)

	assert.Equal(t, int64(-1), s.Get(77))
	assert.True(t, s.SetIfAbsent(77, 1))
	assert.False(t, s.SetIfAbsent(77, 2))
	assert.Equal(t, int64(1), s.GetAndAdd(77, 4))
	assert.True(t, s.Contains(77))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(0); i < s.Capacity(); i += 3 {
				s.CompareAndSwap(i, -1, 0)
				s.AddTo(i, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), s.Get(3))
	assert.Equal(t, int64(-1), s.Get(1))

	count := 0
	s.ForAll(func(_ int64, _ int64) bool {
		count++
		return true
	})
	// multiples of three plus index 77
	assert.Equal(t, int(s.Capacity()+2)/3+1, count)
}
