package pipeline

import (
	"context"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
)

// Operator performs the manual actions exposed by the API and CLI.
type Operator struct {
	store ItemStore
	now   func() time.Time
}

func NewOperator(store ItemStore) *Operator {
	return &Operator{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Approve records a human QA pass: draft -> qa_passed.
func (o *Operator) Approve(ctx context.Context, id string) (*domain.WorkItem, error) {
	if err := o.store.Claim(ctx, id, domain.StatusDraft, domain.StatusQAPassed, o.now()); err != nil {
		return nil, err
	}
	logger.CtxInfo(logger.SetItemID(ctx, id), "Draft approved by operator")
	return o.store.GetByID(ctx, id)
}

// Reset sends a failed or stuck processing item back to qa_passed so the
// feed picks it up again. Its external id, if any, is kept.
func (o *Operator) Reset(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := item.Status
	if err := item.ResetToQA(); err != nil {
		return nil, err
	}
	if err := o.store.SaveTransition(ctx, item, prev); err != nil {
		return nil, err
	}
	logger.CtxInfo(logger.SetItemID(ctx, id), "Item reset from %s", prev)
	return item, nil
}

// Release admits an item held for manual review: pending_review -> pending.
func (o *Operator) Release(ctx context.Context, id string) (*domain.WorkItem, error) {
	if err := o.store.Claim(ctx, id, domain.StatusPendingReview, domain.StatusPending, o.now()); err != nil {
		return nil, err
	}
	logger.CtxInfo(logger.SetItemID(ctx, id), "Item released from review")
	return o.store.GetByID(ctx, id)
}

// Archive rejects an item that has not reached qa_passed.
func (o *Operator) Archive(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := item.Status
	if err := domain.ItemLifecycle.Transition(prev, domain.StatusArchivedJunk); err != nil {
		return nil, err
	}
	item.Status = domain.StatusArchivedJunk
	if err := o.store.SaveTransition(ctx, item, prev); err != nil {
		return nil, err
	}
	logger.CtxInfo(logger.SetItemID(ctx, id), "Item archived by operator from %s", prev)
	return item, nil
}
