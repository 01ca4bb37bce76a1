package pipeline

import (
	"context"
	"time"
)

// Throttle is a fixed pause between outbound calls. It is not a token
// bucket: every Wait sleeps the full delay.
type Throttle struct {
	delay time.Duration
}

func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay}
}

func (t *Throttle) Delay() time.Duration { return t.delay }

// Wait sleeps for the delay or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
