// Package pool runs batches of independent items through a bounded set
// of concurrent workers, racing each item against a per-item timeout.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ProcessFunc handles a single batch item. It must be safe to call
// concurrently with itself; workers operate on distinct items and the
// shared cursor is the only state the pool itself shares between them.
type ProcessFunc[T any] func(ctx context.Context, item T, index int) (any, error)

// Result is the outcome slot for one input item.
type Result struct {
	Index   int   `json:"index"`
	Success bool  `json:"success"`
	Value   any   `json:"result,omitempty"`
	Err     error `json:"-"`
}

// ErrorMessage returns the error text for failed items, empty otherwise.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunBatch executes fn for every item using min(maxWorkers, len(items))
// goroutines sharing an advancing cursor. It always waits for all
// workers and returns one result per input, in input order, regardless
// of individual timeouts or errors.
//
// A timed-out invocation is not cancelled: fn keeps running in the
// background and its eventual result is discarded. Callers that need
// real cancellation must observe ctx inside fn themselves.
func RunBatch[T any](ctx context.Context, items []T, fn ProcessFunc[T], maxWorkers int, perItemTimeout time.Duration, logger *slog.Logger) []Result {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results
	}

	workers := maxWorkers
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	logger.Debug("Batch started",
		slog.Int("items", len(items)),
		slog.Int("workers", workers),
		slog.Duration("per_item_timeout", perItemTimeout),
	)

	var cursor atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(items) {
					return
				}
				results[idx] = runOne(ctx, items[idx], idx, fn, perItemTimeout)
			}
		}()
	}

	wg.Wait()

	logger.Debug("Batch finished", slog.Int("items", len(items)))
	return results
}

type outcome struct {
	value any
	err   error
}

// runOne races fn against the per-item timeout. The outcome channel is
// buffered so a late fn completion never blocks its goroutine.
func runOne[T any](ctx context.Context, item T, index int, fn ProcessFunc[T], timeout time.Duration) Result {
	done := make(chan outcome, 1)
	go func() {
		value, err := fn(ctx, item, index)
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return Result{Index: index, Err: out.err}
		}
		return Result{Index: index, Success: true, Value: out.value}
	case <-timer.C:
		return Result{Index: index, Err: fmt.Errorf("Timeout of %dms exceeded", timeout.Milliseconds())}
	case <-ctx.Done():
		return Result{Index: index, Err: ctx.Err()}
	}
}
