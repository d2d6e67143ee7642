package sampler

import (
	"context"
	"time"
)

// Sleeper suspends the caller for a duration.
type Sleeper interface {
	// Sleep returns ctx.Err() if ctx is done before d elapses.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemSleeper sleeps on a real timer.
type SystemSleeper struct{}

func (SystemSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
