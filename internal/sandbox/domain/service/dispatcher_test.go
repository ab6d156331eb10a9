package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

func newTestDispatcher(t *testing.T, workers, queue int) *Dispatcher {
	t.Helper()
	d, cleanup, err := NewDispatcherWithSize(workers, queue, log.New(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return d
}

func TestDispatchSlotsAreExclusive(t *testing.T) {
	const workers = 3
	d := newTestDispatcher(t, workers, 100)

	var (
		mu      sync.Mutex
		inUse   = make(map[int]bool)
		overlap atomic.Bool
		peak    atomic.Int32
		running atomic.Int32
	)
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.Dispatch(context.Background(), func(worker int) {
				mu.Lock()
				if inUse[worker] {
					overlap.Store(true)
				}
				inUse[worker] = true
				mu.Unlock()

				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)

				mu.Lock()
				inUse[worker] = false
				mu.Unlock()
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "a worker slot was used by two tasks at once")
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.Equal(t, workers, d.free.Size())
}

func TestDispatchWorkerIndexInRange(t *testing.T) {
	d := newTestDispatcher(t, 2, 10)
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Dispatch(context.Background(), func(worker int) {
			assert.GreaterOrEqual(t, worker, 0)
			assert.Less(t, worker, 2)
		}))
	}
}

func TestDispatchCallerRunsWhenQueueFull(t *testing.T) {
	d := newTestDispatcher(t, 1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = d.Dispatch(context.Background(), func(int) {
			close(started)
			<-release
		})
	}()
	<-started
	// occupies the single blocking-queue place
	go func() {
		_ = d.Dispatch(context.Background(), func(int) {})
	}()
	require.Eventually(t, func() bool { return d.pool.Waiting() == 1 }, 2*time.Second, 5*time.Millisecond)

	ran := make(chan struct{})
	go func() {
		_ = d.Dispatch(context.Background(), func(int) { close(ran) })
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("overflowing submission was never run")
	}
}

func TestDispatchCanceledWhileWaitingForSlot(t *testing.T) {
	d := newTestDispatcher(t, 1, 10)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = d.Dispatch(context.Background(), func(int) {
			close(started)
			<-release
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatchAfterRelease(t *testing.T) {
	d, cleanup, err := NewDispatcherWithSize(1, 1, log.New(zaptest.NewLogger(t)))
	require.NoError(t, err)
	cleanup()

	err = d.Dispatch(context.Background(), func(int) {})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestNewDispatcherRejectsZeroWorkers(t *testing.T) {
	_, _, err := NewDispatcherWithSize(0, 1, log.New(zaptest.NewLogger(t)))
	assert.Error(t, err)
}
