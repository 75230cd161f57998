// SPDX-License-Identifier: GPL-3.0-or-later

package semfifo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	f := New[int](3)
	require.True(t, f.Put(1))
	require.True(t, f.Put(2))
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTryPutFullReturnsFalse(t *testing.T) {
	f := New[int](1)
	require.True(t, f.TryPut(1))
	assert.False(t, f.TryPut(2))
}

func TestTryGetEmptyReturnsFalse(t *testing.T) {
	f := New[int](1)
	_, ok := f.TryGet()
	assert.False(t, ok)
}

func TestPutTimeoutExpires(t *testing.T) {
	f := New[int](1)
	require.True(t, f.Put(1))
	assert.False(t, f.PutTimeout(2, 20*time.Millisecond))
}

func TestPutNoBlockDropsOldest(t *testing.T) {
	f := New[int](2)
	require.True(t, f.Put(1))
	require.True(t, f.Put(2))
	dropped := f.PutNoBlock(3)
	assert.Equal(t, 1, dropped)
	v, _ := f.Get()
	assert.Equal(t, 2, v)
}

// Flush(3) on [1,2,3,4,5] leaves [4,5]; next Get returns 4.
func TestFlushPositiveKeepsNewest(t *testing.T) {
	f := New[int](5)
	for i := 1; i <= 5; i++ {
		require.True(t, f.Put(i))
	}
	dropped := f.Flush(3)
	assert.Equal(t, 3, dropped)
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestFlushNegativeKeepsNewestN(t *testing.T) {
	f := New[int](5)
	for i := 1; i <= 5; i++ {
		require.True(t, f.Put(i))
	}
	dropped := f.Flush(-2)
	assert.Equal(t, 3, dropped)
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestReleaseUnblocksWaiters(t *testing.T) {
	f := New[int](1)

	done := make(chan bool)
	go func() {
		_, ok := f.Get()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	f.Release()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Get never unblocked after Release")
	}

	assert.False(t, f.Put(1))
}

func TestNotifierCalledAfterPut(t *testing.T) {
	f := New[int](4)
	var mu sync.Mutex
	var sizes []int
	f.SetNotifier(func(size int) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, size)
	})

	require.True(t, f.Put(1))
	require.True(t, f.Put(2))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestStatsInvariant(t *testing.T) {
	f := New[int](2)
	require.True(t, f.Put(1))
	require.True(t, f.Put(2))
	f.PutNoBlock(3) // drops 1 item to make room
	_, _ = f.Get()

	put, got, dropped, size := f.Stats()
	assert.EqualValues(t, int(put)-int(got)-int(dropped), size)
}

func TestConcurrentPutGetDrains(t *testing.T) {
	f := New[int](4)
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			f.Put(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, ok := f.Get()
			require.True(t, ok)
		}
	}()
	wg.Wait()
	assert.Equal(t, 0, f.Size())
}
