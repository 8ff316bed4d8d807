// Package worker provides a small fixed-size pool for long-running
// operations so the HTTP handlers never tie up more than a couple of
// goroutines fetching from the remote tracker.
package worker

import (
	"context"
	"sync"
)

// Pool runs submitted functions on a fixed number of goroutines.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup

	closeOnce sync.Once
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// New starts a pool of size workers.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{jobs: make(chan job)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}
		j.done <- j.fn(j.ctx)
	}
}

// Submit queues fn and returns a channel that yields its result exactly
// once. If ctx is cancelled before a worker picks the job up, the channel
// yields the context error instead.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		select {
		case p.jobs <- job{ctx: ctx, fn: fn, done: done}:
		case <-ctx.Done():
			done <- ctx.Err()
		}
	}()
	return done
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
