package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Wenrh2004/judge-sandbox/pkg/log"
	"github.com/Wenrh2004/judge-sandbox/pkg/metrics"
	"github.com/Wenrh2004/judge-sandbox/pkg/quene"
)

var ErrDispatcherClosed = errors.New("[Dispatcher.Dispatch]dispatcher is closed")

// Dispatcher runs submissions on a bounded worker pool. Every task holds one worker slot
// for its whole lifetime, and a slot maps to exactly one container.
type Dispatcher struct {
	pool   *ants.Pool
	sem    *semaphore.Weighted
	free   *quene.RingQueue[int]
	logger *log.Logger
}

// NewDispatcher sizes the worker pool from app.sandbox.workers and app.sandbox.queue_size.
func NewDispatcher(conf *viper.Viper, logger *log.Logger) (*Dispatcher, func(), error) {
	workers := conf.GetInt("app.sandbox.workers")
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	return NewDispatcherWithSize(workers, conf.GetInt("app.sandbox.queue_size"), logger)
}

func NewDispatcherWithSize(workers, queueSize int, logger *log.Logger) (*Dispatcher, func(), error) {
	if workers <= 0 {
		return nil, nil, fmt.Errorf("[Dispatcher.New]invalid worker count %d", workers)
	}
	p, err := ants.NewPool(workers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(queueSize),
		ants.WithPanicHandler(func(r any) {
			logger.Error("[Dispatcher]worker panicked", zap.Any("panic", r), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("[Dispatcher.New]create pool: %w", err)
	}

	free := quene.NewRingQueue[int](workers)
	for i := 0; i < workers; i++ {
		_ = free.Enqueue(i)
	}
	d := &Dispatcher{
		pool:   p,
		sem:    semaphore.NewWeighted(int64(workers)),
		free:   free,
		logger: logger,
	}
	metrics.RegisterWorkerGauges(p.Running, p.Waiting)
	return d, d.Release, nil
}

// Dispatch runs fn on a worker and waits for it to return. When the queue is full fn runs
// on the caller's goroutine instead of being rejected; it still waits for a free slot.
func (d *Dispatcher) Dispatch(ctx context.Context, fn func(worker int)) error {
	done := make(chan struct{})
	var slotErr error
	task := func() {
		defer close(done)
		worker, err := d.acquire(ctx)
		if err != nil {
			slotErr = err
			return
		}
		defer d.release(worker)
		fn(worker)
	}

	err := d.pool.Submit(task)
	switch {
	case err == nil:
	case errors.Is(err, ants.ErrPoolOverload):
		metrics.CallerRunsTotal.Inc()
		d.logger.WithContext(ctx).Warn("[Dispatcher.Dispatch]queue is full, running on caller",
			zap.Int("waiting", d.pool.Waiting()),
			zap.Int("freeSlots", d.free.Size()),
			zap.Int("workers", d.free.Cap()))
		task()
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrDispatcherClosed
	default:
		return fmt.Errorf("[Dispatcher.Dispatch]submit: %w", err)
	}
	<-done
	return slotErr
}

func (d *Dispatcher) acquire(ctx context.Context) (int, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("[Dispatcher.acquire]wait for worker slot: %w", err)
	}
	worker, err := d.free.Dequeue()
	if err != nil {
		// the semaphore bounds holders to the queue capacity
		d.sem.Release(1)
		return 0, fmt.Errorf("[Dispatcher.acquire]%w", err)
	}
	return worker, nil
}

func (d *Dispatcher) release(worker int) {
	if err := d.free.Enqueue(worker); err != nil {
		d.logger.Error("[Dispatcher.release]slot returned twice", zap.Int("worker", worker), zap.Error(err))
	}
	d.sem.Release(1)
}

func (d *Dispatcher) Release() {
	d.pool.Release()
}
