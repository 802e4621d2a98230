package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewPool(3)
	ctx := context.Background()
	pool.Start(ctx)

	var ran int64
	for i := 0; i < 20; i++ {
		err := pool.Submit(ctx, func(context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	pool.Stop()

	if got := atomic.LoadInt64(&ran); got != 20 {
		t.Errorf("tasks run = %d, want 20", got)
	}
}

func TestPoolSurvivesTaskErrors(t *testing.T) {
	pool := NewPool(1)
	ctx := context.Background()
	pool.Start(ctx)

	var ran int64
	pool.Submit(ctx, func(context.Context) error { return errors.New("boom") })
	pool.Submit(ctx, func(context.Context) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})
	pool.Stop()

	if atomic.LoadInt64(&ran) != 1 {
		t.Error("task after a failing one did not run")
	}
}

func TestSubmitHonorsCancelledContext(t *testing.T) {
	pool := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	// Fill the worker and the buffer so Submit would block.
	block := make(chan struct{})
	pool.Submit(ctx, func(context.Context) error { <-block; return nil })
	for i := 0; i < 2; i++ {
		pool.Submit(ctx, func(context.Context) error { return nil })
	}

	cancel()
	err := pool.Submit(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
	close(block)

	// Workers exit on cancellation.
	done := make(chan struct{})
	go func() { pool.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after cancellation")
	}
}
