package starlark

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/plotlogic/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestThreadPool_GetPut(t *testing.T) {
	pool := NewThreadPool(5, testutil.NewTestLogger(t))

	thread := pool.Get("field:a")
	require.NotNil(t, thread)
	assert.Equal(t, "field:a", thread.Name)

	pool.Put(thread)
	assert.Equal(t, 1, pool.Size())

	thread2 := pool.Get("field:b")
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, "field:b", thread2.Name)
}

func TestThreadPool_MaxSize(t *testing.T) {
	pool := NewThreadPool(2, nil)

	threads := make([]*starlark.Thread, 3)
	for i := range threads {
		threads[i] = pool.Get("test")
	}
	for _, thread := range threads {
		pool.Put(thread)
	}

	assert.Equal(t, 2, pool.Size())
}

func TestThreadPool_DefaultSize(t *testing.T) {
	pool := NewThreadPool(0, nil)
	for i := 0; i < 5; i++ {
		pool.Put(pool.Get("test"))
	}
	assert.NotEqual(t, 0, pool.Size())
}

func TestThreadPool_ResetsReusedThreads(t *testing.T) {
	pool := NewThreadPool(1, nil)
	thread := pool.Get("test")
	thread.Steps = 42
	thread.Cancel("too many steps")
	pool.Put(thread)

	reused := pool.Get("again")
	assert.Equal(t, uint64(0), reused.Steps)

	_, err := starlark.ExecFile(reused, "ok.star", "x = 1 + 1", nil) //nolint:staticcheck // SA1019: test helper
	assert.NoError(t, err)
}

func TestThreadPool_Concurrent(t *testing.T) {
	pool := NewThreadPool(10, nil)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			thread := pool.Get("concurrent")
			pool.Put(thread)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, pool.Size(), 10)
}
