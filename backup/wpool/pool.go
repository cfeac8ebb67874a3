// Package wpool implements the bounded-concurrency worker pool: a
// fixed-size semaphore gating submission, one shard's full scan-and-build
// pipeline run to completion per acquisition so scanner and SST writer
// handles stay thread-local.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many shard pipelines may run concurrently: a fixed-size
// counting gate, no work stealing.
type Pool struct {
	sem *semaphore.Weighted
	cap int64
}

func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), cap: int64(size)}
}

func (p *Pool) Cap() int { return int(p.cap) }

// Go blocks until a slot is free (or ctx is done), then runs fn on its own
// goroutine, releasing the slot when fn returns. Go returns immediately
// after fn has been scheduled; it does not wait for fn to complete.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}
