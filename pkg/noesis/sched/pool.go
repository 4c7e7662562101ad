// Package sched provides the fixed-size worker pool that bounds how
// many CPU-heavy reasoning calls run at once.
package sched

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool gates work through a weighted semaphore. Callers block until a
// slot frees up or their context is cancelled.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
}

// New creates a pool with the given number of slots. Sizes below one
// are clamped to one.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers)), workers: workers}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Do runs fn in the calling goroutine once a slot is acquired. It
// returns the context error if acquisition fails.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}
	defer p.sem.Release(1)
	return fn()
}
