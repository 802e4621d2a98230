package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one unit of background work. Errors are logged by the pool;
// a task that must not be lost records its own failure state.
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of goroutines. Submit blocks when
// the buffer is full, which backpressures the queue consumer instead of
// growing unboundedly.
type Pool struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		tasks:   make(chan Task, workers*2),
		workers: workers,
	}
}

// Start launches the workers. They exit when the context is cancelled
// or the task channel is closed by Stop.
func (p *Pool) Start(ctx context.Context) {
	log.Info().Int("workers", p.workers).Msg("Worker pool started")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if err := task(ctx); err != nil {
				log.Error().Err(err).Int("worker", id).Msg("Background task failed")
			}
		}
	}
}

// Submit enqueues a task, blocking until a buffer slot frees up or the
// context is cancelled.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

// Stop closes the intake and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	log.Info().Msg("Worker pool stopped")
}
