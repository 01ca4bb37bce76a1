package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

// Rechecker re-applies admission rules to a stored item.
type Rechecker interface {
	Recheck(ctx context.Context, item *domain.WorkItem) (domain.AdmissionDecision, error)
}

// Feed yields ids of items entering a status.
type Feed interface {
	IDs(ctx context.Context, status domain.ItemStatus) <-chan string
}

// DraftPromoter moves new pending items to draft, archiving those that fail
// the curation recheck.
type DraftPromoter struct {
	store ItemStore
	gate  Rechecker
	now   func() time.Time
}

func NewDraftPromoter(store ItemStore, gate Rechecker) *DraftPromoter {
	return &DraftPromoter{store: store, gate: gate, now: func() time.Time { return time.Now().UTC() }}
}

// Handle promotes or archives one pending item and returns its new status.
// Items no longer pending are left alone.
func (p *DraftPromoter) Handle(ctx context.Context, id string) (domain.ItemStatus, error) {
	ctx = logger.SetComponent(logger.SetItemID(ctx, id), "draft_promoter")

	item, err := p.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if item.Status != domain.StatusPending {
		return item.Status, nil
	}

	decision, err := p.gate.Recheck(ctx, item)
	if err != nil {
		return item.Status, fmt.Errorf("recheck: %w", err)
	}

	to := domain.StatusDraft
	if !decision.Admitted {
		to = domain.StatusArchivedJunk
	}
	if err := p.store.Claim(ctx, id, domain.StatusPending, to, p.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return item.Status, nil
		}
		return item.Status, err
	}

	if to == domain.StatusArchivedJunk {
		logger.With(logger.Fields{logger.FieldRule: decision.Rule}).
			Info(ctx, "Archived as junk: %s", decision.Reason)
	} else {
		logger.CtxDebug(ctx, "Promoted to draft")
	}
	return to, nil
}

// Run handles every item entering pending until the feed closes.
func (p *DraftPromoter) Run(ctx context.Context, feed Feed) error {
	return consume(ctx, feed, domain.StatusPending, p.Handle)
}

// QAReviewer approves drafts that carry everything a listing needs. Drafts
// that do not stay in draft for a human.
type QAReviewer struct {
	store    ItemStore
	validate *validator.Validate
	now      func() time.Time
}

func NewQAReviewer(store ItemStore) *QAReviewer {
	return &QAReviewer{store: store, validate: newValidator(), now: func() time.Time { return time.Now().UTC() }}
}

// Handle reviews one draft and returns its resulting status.
func (r *QAReviewer) Handle(ctx context.Context, id string) (domain.ItemStatus, error) {
	ctx = logger.SetComponent(logger.SetItemID(ctx, id), "qa_reviewer")

	item, err := r.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if item.Status != domain.StatusDraft {
		return item.Status, nil
	}
	if msg := validateItem(r.validate, item); msg != "" {
		logger.CtxWarn(ctx, "Draft held for manual QA: %s", msg)
		return item.Status, nil
	}
	if err := r.store.Claim(ctx, id, domain.StatusDraft, domain.StatusQAPassed, r.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return item.Status, nil
		}
		return item.Status, err
	}
	logger.CtxInfo(ctx, "Draft passed QA")
	return domain.StatusQAPassed, nil
}

// Run reviews every item entering draft until the feed closes.
func (r *QAReviewer) Run(ctx context.Context, feed Feed) error {
	return consume(ctx, feed, domain.StatusDraft, r.Handle)
}

func consume(ctx context.Context, feed Feed, status domain.ItemStatus, handle func(context.Context, string) (domain.ItemStatus, error)) error {
	for id := range feed.IDs(ctx, status) {
		if _, err := handle(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldItemID, id).
				Error("Failed to handle item")
		}
	}
	return nil
}
