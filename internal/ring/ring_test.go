package ring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutNonBlockingDropsOldestOnOverflow(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 4; i++ {
		require.True(t, b.PutNonBlocking(i))
	}
	require.Equal(t, 3, b.Len())

	for _, want := range []int{2, 3, 4} {
		got, ok := b.Get(10 * time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestGetTimesOutWhenEmpty(t *testing.T) {
	b := New[int](2)
	_, ok := b.Get(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestCloseDrainsThenReturnsFalse(t *testing.T) {
	b := New[int](4)
	require.True(t, b.PutNonBlocking(1))
	require.True(t, b.PutNonBlocking(2))
	b.Close()

	got, ok := b.Get(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	got, ok = b.Get(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 2, got)

	_, ok = b.Get(10 * time.Millisecond)
	assert.False(t, ok)

	assert.False(t, b.PutNonBlocking(3))
	assert.False(t, b.PutBlocking(3, 10*time.Millisecond))
}

func TestPutBlockingWaitsForSpace(t *testing.T) {
	b := New[int](1)
	require.True(t, b.PutNonBlocking(1))

	done := make(chan bool, 1)
	go func() {
		done <- b.PutBlocking(2, 200*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	got, ok := b.Get(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	assert.True(t, <-done)
}

func TestCloseWakesBlockedGet(t *testing.T) {
	b := New[int](1)
	done := make(chan bool, 1)
	go func() {
		_, ok := b.Get(2 * time.Second)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	b.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake on Close")
	}
}
