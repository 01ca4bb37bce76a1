package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

// SweepStore lists expired leases and writes their resolution.
type SweepStore interface {
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.WorkItem, error)
	SaveTransition(ctx context.Context, item *domain.WorkItem, expected domain.ItemStatus) error
}

// SweepPolicy decides what happens to items stuck in processing.
// A zero StaleAfter disables sweeping.
type SweepPolicy struct {
	StaleAfter time.Duration
	Action     string // config.StaleActionFail or config.StaleActionRequeue
}

// SweepResult counts what a sweep did.
type SweepResult struct {
	Failed   int `json:"failed"`
	Requeued int `json:"requeued"`
	Lost     int `json:"lost"`
}

// Sweeper resolves processing items whose lease has expired, which happens
// when the process dies between the write-ahead marker and the terminal write.
type Sweeper struct {
	store  SweepStore
	policy SweepPolicy
	now    func() time.Time
}

func NewSweeper(store SweepStore, policy SweepPolicy) *Sweeper {
	return &Sweeper{store: store, policy: policy, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the sweeper's clock.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

func (s *Sweeper) Enabled() bool {
	return s.policy.StaleAfter > 0
}

// Sweep applies the policy once.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if !s.Enabled() {
		return res, nil
	}
	ctx = logger.SetComponent(ctx, "sweeper")

	now := s.now()
	stale, err := s.store.ListStaleProcessing(ctx, now.Add(-s.policy.StaleAfter))
	if err != nil {
		return res, fmt.Errorf("list stale items: %w", err)
	}

	for i := range stale {
		item := &stale[i]
		itemCtx := logger.SetItemID(ctx, item.ID)

		switch s.policy.Action {
		case config.StaleActionRequeue:
			err = item.ResetToQA()
		default:
			err = item.MarkFailed(StepLease,
				fmt.Sprintf("processing lease expired after %s", s.policy.StaleAfter), now)
		}
		if err != nil {
			return res, err
		}

		if err := s.store.SaveTransition(itemCtx, item, domain.StatusProcessing); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				res.Lost++
				continue
			}
			return res, fmt.Errorf("resolve stale item %s: %w", item.ID, err)
		}
		if item.Status == domain.StatusQAPassed {
			res.Requeued++
		} else {
			res.Failed++
		}
		logger.CtxWarn(itemCtx, "Stale processing item moved to %s", item.Status)
	}

	if len(stale) > 0 {
		logger.With(logger.Fields{
			"failed":   res.Failed,
			"requeued": res.Requeued,
			"lost":     res.Lost,
		}).Info(ctx, "Sweep finished")
	}
	return res, nil
}

// Run sweeps every interval until ctx is done. Sweep errors are logged.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			logger.FromContext(ctx).WithError(err).Error("Sweep failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
