package worker

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scenecast/internal/pkg/errors"
	"scenecast/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
}

func TestPoolRunsTasks(t *testing.T) {
	p := NewPool(2, 8, testLogger())
	p.Start(context.Background())

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		if err := p.Schedule(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}
	wg.Wait()

	if ran.Load() != 5 {
		t.Errorf("ran %d tasks, want 5", ran.Load())
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestScheduleQueueFull(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	p.Start(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	_ = p.Schedule(func(ctx context.Context) {
		close(started)
		<-block
	})
	<-started // worker is busy

	_ = p.Schedule(func(ctx context.Context) {}) // fills the queue

	err := p.Schedule(func(ctx context.Context) {})
	if !errors.IsCode(err, errors.CodeResourceExhaust) {
		t.Fatalf("expected RESOURCE_EXHAUSTED, got %v", err)
	}

	close(block)
	_ = p.Stop(context.Background())
}

func TestStopDrainsQueue(t *testing.T) {
	p := NewPool(1, 8, testLogger())
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 4; i++ {
		if err := p.Schedule(func(ctx context.Context) {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ran.Load() != 4 {
		t.Errorf("queued tasks must run before Stop returns, ran %d", ran.Load())
	}
}

func TestScheduleAfterStop(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	p.Start(context.Background())
	_ = p.Stop(context.Background())

	err := p.Schedule(func(ctx context.Context) {})
	if !errors.IsCode(err, errors.CodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestStopTimeout(t *testing.T) {
	p := NewPool(1, 1, testLogger())
	p.Start(context.Background())

	block := make(chan struct{})
	defer close(block)
	_ = p.Schedule(func(ctx context.Context) { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Stop(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestTaskPanicDoesNotKillWorker(t *testing.T) {
	p := NewPool(1, 4, testLogger())
	p.Start(context.Background())

	_ = p.Schedule(func(ctx context.Context) { panic("boom") })

	done := make(chan struct{})
	if err := p.Schedule(func(ctx context.Context) { close(done) }); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
	_ = p.Stop(context.Background())
}
