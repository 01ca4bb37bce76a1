package changefeed

import (
	"context"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
)

// Lister reads a status view of the state store.
type Lister interface {
	ListByStatus(ctx context.Context, status domain.ItemStatus, limit, offset int) ([]domain.WorkItem, error)
}

// Config tunes polling.
type Config struct {
	PollInterval  time.Duration
	RetryInterval time.Duration
	PageSize      int
}

// Subscriber turns a pollable status view into a stream of "added" events.
// The first snapshot reports every matching document as added. Modified and
// removed changes are observed but not delivered.
type Subscriber struct {
	store Lister
	cfg   Config
}

func NewSubscriber(store Lister, cfg Config) *Subscriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = cfg.PollInterval
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	return &Subscriber{store: store, cfg: cfg}
}

// Subscribe streams added events for status until ctx is done, then closes
// the channel. Snapshot errors are logged and retried; they never end the
// stream.
func (s *Subscriber) Subscribe(ctx context.Context, status domain.ItemStatus) <-chan Event {
	out := make(chan Event)
	go s.run(ctx, status, out)
	return out
}

// IDs is Subscribe reduced to item ids.
func (s *Subscriber) IDs(ctx context.Context, status domain.ItemStatus) <-chan string {
	events := s.Subscribe(ctx, status)
	out := make(chan string)
	go func() {
		defer close(out)
		for ev := range events {
			select {
			case out <- ev.ID:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Subscriber) run(ctx context.Context, status domain.ItemStatus, out chan<- Event) {
	defer close(out)
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "changefeed",
		logger.FieldStatus:    status,
	})
	logger.CtxInfo(ctx, "Change feed listening")

	var prev Snapshot
	for {
		wait := s.cfg.PollInterval

		next, err := s.snapshot(ctx, status)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			logger.FromContext(ctx).WithError(err).Warn("Change feed snapshot failed, retrying")
			wait = s.cfg.RetryInterval
		default:
			if !s.deliver(ctx, Diff(prev, next, status), out) {
				return
			}
			prev = next
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *Subscriber) deliver(ctx context.Context, events []Event, out chan<- Event) bool {
	var modified, removed int
	for _, ev := range events {
		switch ev.Type {
		case Added:
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
		case Modified:
			modified++
		case Removed:
			removed++
		}
	}
	if modified+removed > 0 {
		logger.With(logger.Fields{"modified": modified, "removed": removed}).
			Debug(ctx, "Ignored non-add changes")
	}
	return true
}

func (s *Subscriber) snapshot(ctx context.Context, status domain.ItemStatus) (Snapshot, error) {
	var all []domain.WorkItem
	for offset := 0; ; offset += s.cfg.PageSize {
		page, err := s.store.ListByStatus(ctx, status, s.cfg.PageSize, offset)
		if err != nil {
			return Snapshot{}, err
		}
		all = append(all, page...)
		if len(page) < s.cfg.PageSize {
			break
		}
	}
	return NewSnapshot(all), nil
}
