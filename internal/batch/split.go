// Package batch provides the generic batched fan-out driver used by the
// letter and email pipelines: fixed-size splitting, bounded intra-batch
// concurrency, per-item failure isolation and order-preserving results.
package batch

import (
	"errors"
	"fmt"
)

// Validation errors shared by the batch driver.
var (
	ErrNoItems          = errors.New("no items to process")
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
)

// Split partitions items in original order into consecutive chunks of at most
// size elements. The last chunk may be smaller. Flattening the chunks
// reconstructs the input exactly.
func Split[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}

	if len(items) == 0 {
		return nil, nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches, nil
}
