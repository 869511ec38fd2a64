package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hugegraph/internal/resource"
)

func TestArena_New(t *testing.T) {
	t.Run("default page size", func(t *testing.T) {
		a, err := New(0)
		require.NoError(t, err)
		defer a.Free()

		assert.Equal(t, DefaultPageSize, a.PageSize())
		assert.Equal(t, uint(DefaultPageShift), a.PageShift())
	})

	t.Run("rounds up to power of two", func(t *testing.T) {
		a, err := New(1000)
		require.NoError(t, err)
		defer a.Free()

		assert.Equal(t, 1024, a.PageSize())
	})
}

func TestArena_Alloc(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)
	defer a.Free()

	addr, buf, err := a.Alloc(10)
	require.NoError(t, err)
	assert.NotZero(t, addr, "address 0 is reserved")
	assert.Len(t, buf, 10)
	for _, b := range buf {
		assert.Zero(t, b)
	}

	copy(buf, []byte("0123456789"))
	assert.Equal(t, []byte("0123456789"), bytesAt(a, addr)[:10])

	// Zero-sized allocation hands out nothing.
	addr, buf, err = a.Alloc(0)
	require.NoError(t, err)
	assert.Zero(t, addr)
	assert.Nil(t, buf)
}

func TestArena_BlocksNeverStraddlePages(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)
	defer a.Free()

	for i := 0; i < 100; i++ {
		addr, buf, err := a.Alloc(24)
		require.NoError(t, err)
		offset := addr & (uint64(a.PageSize()) - 1)
		assert.LessOrEqual(t, offset+24, uint64(a.PageSize()))
		buf[0] = byte(i)
		assert.Equal(t, byte(i), bytesAt(a, addr)[0])
	}
	assert.Greater(t, a.Stats().PagesAllocated, uint64(1))
}

func TestArena_Oversized(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)
	defer a.Free()

	addr, buf, err := a.Alloc(200)
	require.NoError(t, err)
	assert.Len(t, buf, 200)
	assert.Zero(t, addr&(uint64(a.PageSize())-1), "oversized blocks start at offset 0")

	buf[199] = 7
	assert.Equal(t, byte(7), bytesAt(a, addr)[199])
	assert.Equal(t, uint64(1), a.Stats().OversizedPages)

	// Regular allocation continues in the current page.
	small, _, err := a.Alloc(4)
	require.NoError(t, err)
	assert.NotEqual(t, addr>>a.PageShift(), small>>a.PageShift())
}

func TestArena_ConcurrentAlloc(t *testing.T) {
	a, err := New(256)
	require.NoError(t, err)
	defer a.Free()

	const workers = 8
	const perWorker = 500

	addrs := make([][]uint64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				addr, buf, err := a.Alloc(8)
				if err != nil {
					t.Error(err)
					return
				}
				buf[0] = byte(w)
				addrs[w] = append(addrs[w], addr)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*perWorker)
	for w, list := range addrs {
		for _, addr := range list {
			_, dup := seen[addr]
			require.False(t, dup, "duplicate address %d", addr)
			seen[addr] = struct{}{}
			assert.Equal(t, byte(w), bytesAt(a, addr)[0])
		}
	}
	assert.Equal(t, uint64(workers*perWorker+1), a.Stats().TotalAllocs)
}

func TestArena_MemoryAcquirer(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 128})

	a, err := New(64, WithMemoryAcquirer(rc))
	require.NoError(t, err)
	assert.Equal(t, int64(64), rc.MemoryUsage())

	// Fits the first page behind the reserved null byte.
	_, _, err = a.Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, int64(64), rc.MemoryUsage())

	_, _, err = a.Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, int64(128), rc.MemoryUsage())

	// A third page exceeds the budget.
	_, _, err = a.Alloc(60)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	require.NoError(t, a.Free())
	assert.Zero(t, rc.MemoryUsage())

	_, _, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestArena_OffHeap(t *testing.T) {
	a, err := New(4096, WithOffHeap(true))
	require.NoError(t, err)

	addr, buf, err := a.Alloc(100)
	require.NoError(t, err)
	buf[99] = 42
	assert.Equal(t, byte(42), bytesAt(a, addr)[99])
	assert.Len(t, a.Pages(), 1)

	require.NoError(t, a.Free())
}

func bytesAt(a *Arena, addr uint64) []byte {
	return a.Pages()[addr>>a.PageShift()][addr&uint64(a.PageSize()-1):]
}
