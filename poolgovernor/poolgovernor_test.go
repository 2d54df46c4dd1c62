package poolgovernor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
)

func TestUnboundedChannelNeverBlocks(t *testing.T) {
	g := New(Config{})
	require.False(t, g.ReadEnabled())
	require.False(t, g.WriteEnabled())

	require.NoError(t, g.Acquire(context.Background(), connstrategy.Read))
	g.Release(connstrategy.Read)
}

func TestAcquireTimesOutWhenExhausted(t *testing.T) {
	g := New(Config{MaxConcurrentWrites: 1, AcquireTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, connstrategy.Write))
	defer g.Release(connstrategy.Write)

	err := g.Acquire(ctx, connstrategy.Write)
	require.Error(t, err)
	assert.ErrorIs(t, err, dberr.ErrPoolAcquireTimeout)
}

func TestReleaseFreesPermitForNextAcquire(t *testing.T) {
	g := New(Config{MaxConcurrentReads: 1, AcquireTimeout: time.Second})
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, connstrategy.Read))
	g.Release(connstrategy.Read)

	require.NoError(t, g.Acquire(ctx, connstrategy.Read))
	g.Release(connstrategy.Read)
}

func TestAlwaysEnabledBoundsEvenAtZeroLimit(t *testing.T) {
	g := New(Config{AlwaysEnabled: true, AcquireTimeout: 20 * time.Millisecond})
	require.True(t, g.ReadEnabled())
	require.True(t, g.WriteEnabled())

	ctx := context.Background()
	require.NoError(t, g.Acquire(ctx, connstrategy.Write))
	err := g.Acquire(ctx, connstrategy.Write)
	require.Error(t, err)
}

// TestConcurrentAcquireReleaseNeverPanics exercises 20 goroutines x 200
// iterations acquiring/releasing both channels, matching spec.md §8's
// "no exception escapes under concurrent load" property.
func TestConcurrentAcquireReleaseNeverPanics(t *testing.T) {
	g := New(Config{MaxConcurrentReads: 4, MaxConcurrentWrites: 2, AcquireTimeout: time.Second})
	ctx := context.Background()

	var wg sync.WaitGroup
	var failures int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			channel := connstrategy.Read
			if n%2 == 0 {
				channel = connstrategy.Write
			}
			for j := 0; j < 200; j++ {
				if err := g.Acquire(ctx, channel); err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				g.Release(channel)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int64(0), failures)
}

// TestWriterPreferenceLetsWaitingWriterThrough is a best-effort check that
// writer preference doesn't deadlock or error while a reader holds its
// permit; reads and writes draw on separate semaphores and it cannot
// assert strict ordering without a real scheduler, so it only asserts
// that the writer acquires within the timeout.
func TestWriterPreferenceLetsWaitingWriterThrough(t *testing.T) {
	g := New(Config{MaxConcurrentReads: 1, MaxConcurrentWrites: 1, WriterPreference: true, AcquireTimeout: time.Second})
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, connstrategy.Read))

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- g.Acquire(ctx, connstrategy.Write)
	}()

	time.Sleep(10 * time.Millisecond)
	g.Release(connstrategy.Read)

	select {
	case err := <-writerDone:
		require.NoError(t, err)
		g.Release(connstrategy.Write)
	case <-time.After(time.Second):
		t.Fatal("writer never acquired")
	}
}
