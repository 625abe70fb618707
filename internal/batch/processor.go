package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Status is the outcome of a single work item.
type Status string

// Item outcomes.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome record for one work item. Failed items carry the
// error message, skipped items the skip reason.
type Result[R any] struct {
	ItemKey string
	Message string
	Payload R
	Status  Status
}

// Statistics aggregates the per-item outcomes of one driver invocation.
type Statistics struct {
	Elapsed   time.Duration
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Report is the full return value of Process: ordered per-item results plus
// aggregate statistics. It has no persistence of its own.
type Report[R any] struct {
	Results []Result[R]
	Stats   Statistics
}

// Config controls batch sizing and the pacing toward rate-limited
// downstream collaborators.
type Config struct {
	BatchSize     int
	MaxConcurrent int
	ItemDelay     time.Duration
	BatchDelay    time.Duration
}

// DefaultConfig returns the pacing used by the artifact pipelines unless
// overridden by configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     10,
		MaxConcurrent: 3,
		ItemDelay:     100 * time.Millisecond,
		BatchDelay:    time.Second,
	}
}

// Job describes the work applied to each item.
type Job[T, R any] struct {
	// Key derives the stable item key recorded on results. Falls back to the
	// item's position when nil.
	Key func(T) string
	// Skip, when non-nil, pre-filters items: a true return records the item
	// as skipped with the given reason and Run is never invoked for it.
	Skip func(T) (string, bool)
	// Run performs the per-item operation.
	Run func(ctx context.Context, item T) (R, error)
	// Scheduler handles inter-item and inter-batch delays. Defaults to the
	// wall clock.
	Scheduler Scheduler
}

// Process executes job.Run over items in fixed-size batches. Items within a
// batch run with bounded concurrency; a failing item is recorded and never
// aborts its siblings or later batches. Results preserve input order
// regardless of completion order.
//
// Cancellation is honored between batches only: a batch that has started
// runs to completion, and any items never started are recorded as skipped.
func Process[T, R any](ctx context.Context, items []T, job Job[T, R], cfg Config) (*Report[R], error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if job.Run == nil {
		return nil, fmt.Errorf("batch job has no Run operation")
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	sched := job.Scheduler
	if sched == nil {
		sched = NewScheduler()
	}

	start := time.Now()

	batches, err := Split(items, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	results := make([]Result[R], len(items))
	offset := 0

	for bi, b := range batches {
		if ctx.Err() != nil {
			markRemaining(results, items, job, offset, "processing canceled")
			break
		}

		slog.Debug("Processing batch",
			"batch", bi+1,
			"batches", len(batches),
			"items", len(b))

		runBatch(ctx, b, job, cfg, sched, results, offset)
		offset += len(b)

		if bi < len(batches)-1 && cfg.BatchDelay > 0 {
			if err := sched.Sleep(ctx, cfg.BatchDelay); err != nil {
				markRemaining(results, items, job, offset, "processing canceled")
				break
			}
		}
	}

	report := &Report[R]{Results: results}
	report.Stats = tally(results)
	report.Stats.Elapsed = time.Since(start)
	return report, nil
}

// runBatch executes one batch with a semaphore bounding concurrency. Results
// are written at each item's original index, never appended, so input order
// survives out-of-order completion.
func runBatch[T, R any](
	ctx context.Context,
	items []T,
	job Job[T, R],
	cfg Config,
	sched Scheduler,
	results []Result[R],
	offset int,
) {
	sem := make(chan struct{}, cfg.MaxConcurrent)
	var wg sync.WaitGroup

	launched := false
	for i, item := range items {
		idx := offset + i
		key := itemKey(job, item, idx)

		if job.Skip != nil {
			if reason, skip := job.Skip(item); skip {
				results[idx] = Result[R]{ItemKey: key, Status: StatusSkipped, Message: reason}
				continue
			}
		}

		// Stagger item starts toward rate-limited collaborators.
		if launched && cfg.ItemDelay > 0 {
			if err := sched.Sleep(ctx, cfg.ItemDelay); err != nil {
				results[idx] = Result[R]{ItemKey: key, Status: StatusSkipped, Message: "processing canceled"}
				continue
			}
		}
		launched = true

		wg.Add(1)
		go func(idx int, key string, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = runItem(ctx, job, key, item)
		}(idx, key, item)
	}

	wg.Wait()
}

// runItem invokes the operation for one item, converting errors and panics
// into failed results so sibling items keep running.
func runItem[T, R any](ctx context.Context, job Job[T, R], key string, item T) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{
				ItemKey: key,
				Status:  StatusFailed,
				Message: fmt.Sprintf("operation panicked: %v", r),
			}
		}
	}()

	payload, err := job.Run(ctx, item)
	if err != nil {
		return Result[R]{ItemKey: key, Status: StatusFailed, Message: err.Error()}
	}
	return Result[R]{ItemKey: key, Status: StatusSuccess, Payload: payload}
}

func markRemaining[T, R any](results []Result[R], items []T, job Job[T, R], offset int, reason string) {
	for idx := offset; idx < len(items); idx++ {
		results[idx] = Result[R]{
			ItemKey: itemKey(job, items[idx], idx),
			Status:  StatusSkipped,
			Message: reason,
		}
	}
}

func itemKey[T, R any](job Job[T, R], item T, idx int) string {
	if job.Key != nil {
		if key := job.Key(item); key != "" {
			return key
		}
	}
	return strconv.Itoa(idx)
}

func tally[R any](results []Result[R]) Statistics {
	stats := Statistics{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			stats.Succeeded++
		case StatusFailed:
			stats.Failed++
		case StatusSkipped:
			stats.Skipped++
		}
	}
	return stats
}
