package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// WorkerPoolConfig configures the LLM worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int // Maximum concurrent LLM calls (default: 2)
}

// DefaultWorkerPoolConfig returns the default pool size. Hosted free tiers
// rate-limit aggressively, so the default is small.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: 2,
	}
}

// WorkerPool runs LLM calls with bounded parallelism. A single pool may be
// shared across requests; the bound applies to each Process call.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new LLM worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultWorkerPoolConfig().MaxConcurrent
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("llm-worker-pool"),
	}
}

// MaxConcurrent returns the configured parallelism.
func (p *WorkerPool) MaxConcurrent() int {
	return p.config.MaxConcurrent
}

// WorkItem represents a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// WorkResult represents the result of a work item.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism and returns the
// results in submission order. Every item gets a result: items that never
// start because ctx is done carry ctx.Err(). onProgress, if set, is called
// after each completion from the completing goroutine, serialized.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], len(items))
	sem := semaphore.NewWeighted(int64(pool.config.MaxConcurrent))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	done := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	for i, item := range items {
		results[i].ID = item.ID

		err := ctx.Err()
		if err == nil {
			err = sem.Acquire(ctx, 1)
		}
		if err != nil {
			results[i].Err = err
			done()
			continue
		}

		wg.Add(1)
		go func(i int, item WorkItem[T]) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := item.Execute(ctx)
			results[i].Result = result
			results[i].Err = err
			if err != nil {
				pool.logger.Debug("work item failed", zap.String("id", item.ID), zap.Error(err))
			}
			done()
		}(i, item)
	}

	wg.Wait()
	return results
}
