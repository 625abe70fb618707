package batch

import (
	"context"
	"time"
)

// Scheduler is the suspension seam for the batch driver. Inter-item and
// inter-batch delays go through it so tests can run delay-free with a fake.
type Scheduler interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// clockScheduler sleeps on the wall clock, waking early on cancellation.
type clockScheduler struct{}

func (clockScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewScheduler returns the wall-clock scheduler used in production.
func NewScheduler() Scheduler {
	return clockScheduler{}
}
