package paged

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitSetBasics(t *testing.T) {
	b := NewBitSet(200_000)
	assert.Equal(t, int64(200_000), b.Size())

	b.Set(10)
	b.Set(70_000)
	b.Set(199_999)
	b.Set(200_000)

	assert.True(t, b.Get(10))
	assert.False(t, b.Get(11))
	assert.False(t, b.Get(200_000))
	assert.Equal(t, int64(3), b.Cardinality())

	assert.Equal(t, int64(10), b.NextSetBit(0))
	assert.Equal(t, int64(70_000), b.NextSetBit(11))
	assert.Equal(t, int64(199_999), b.NextSetBit(70_001))
	assert.Equal(t, int64(-1), b.NextSetBit(200_000))

	b.Clear(10)
	assert.False(t, b.Get(10))

	var seen []int64
	b.ForEachSetBit(func(i int64) bool {
		seen = append(seen, i)
		return true
	})
	assert.Equal(t, []int64{70_000, 199_999}, seen)

	b.ClearAll()
	assert.Equal(t, int64(0), b.Cardinality())
}

func TestBitSetGetAndSetConcurrent(t *testing.T) {
	b := NewBitSet(1 << 12)
	var winners sync.Map
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := int64(0); i < b.Size(); i++ {
				if !b.GetAndSet(i) {
					winners.Store(i, w)
				}
			}
		}(w)
	}
	wg.Wait()

	n := 0
	winners.Range(func(_, _ any) bool {
		n++
		return true
	})
	assert.Equal(t, 1<<12, n)
	assert.Equal(t, int64(1<<12), b.Cardinality())
}
