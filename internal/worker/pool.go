// Package worker runs render jobs on a fixed pool of goroutines fed
// by a bounded queue. The queue bound is the service's backpressure:
// when it is full, new jobs are refused instead of piling up.
package worker

import (
	"context"
	"sync"

	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
)

// Task is one unit of detached background work. The context it
// receives is the pool's lifetime context, not the context of the
// request that scheduled it, so work survives the client hanging up.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool over a bounded task queue.
type Pool struct {
	log     *logger.Logger
	workers int
	tasks   chan Task
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given worker count and queue depth.
func NewPool(workers, queueSize int, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		log:     log.WithComponent("worker"),
		workers: workers,
		tasks:   make(chan Task, queueSize),
	}
}

// Start launches the workers. ctx is handed to every task; cancel it
// only if in-flight renders should be killed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(n int) {
			defer p.wg.Done()
			for task := range p.tasks {
				p.runTask(ctx, n, task)
			}
		}(i + 1)
	}
	p.log.Info("worker pool started", "workers", p.workers, "queue_size", cap(p.tasks))
}

// runTask isolates task panics so one bad job cannot take a worker
// down with it.
func (p *Pool) runTask(ctx context.Context, worker int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", "worker", worker, "panic", r)
		}
	}()
	task(ctx)
}

// Schedule enqueues a task without blocking. It returns
// RESOURCE_EXHAUSTED when the queue is full and UNAVAILABLE once the
// pool is stopping.
func (p *Pool) Schedule(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New(errors.CodeUnavailable, "service is shutting down")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return errors.New(errors.CodeResourceExhaust, "render queue is full")
	}
}

// Stop refuses new tasks and waits for the queue to drain: accepted
// jobs always run to completion so their records reach a terminal
// state. Returns ctx.Err() if the drain outlives ctx.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		p.log.Warn("worker pool drain abandoned", "error", ctx.Err().Error())
		return ctx.Err()
	}
}
