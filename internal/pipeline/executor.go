package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

// Outcome is what Process did with an item.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
)

// Failure steps recorded in ErrorDetail.
const (
	StepValidation = "Validation"
	StepPublish    = "Publish"
	StepLease      = "Lease"
)

// ExecutorConfig holds listing defaults.
type ExecutorConfig struct {
	Vendor string
}

// Executor takes one qa_passed item through validation, enrichment and
// publishing and persists the terminal state.
type Executor struct {
	store     ItemStore
	enricher  *Enricher
	publisher Publisher
	notifier  Notifier
	validate  *validator.Validate
	cfg       ExecutorConfig
	now       func() time.Time
}

// NewExecutor creates an Executor. A nil notifier disables notifications.
func NewExecutor(store ItemStore, enricher *Enricher, publisher Publisher, notifier Notifier, cfg ExecutorConfig) *Executor {
	return &Executor{
		store:     store,
		enricher:  enricher,
		publisher: publisher,
		notifier:  notifier,
		validate:  newValidator(),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the executor's clock.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Process runs the item. Items that are missing, not qa_passed, or claimed by
// another writer are skipped without side effects. The returned error is only
// set when the store itself fails; item failures are recorded on the item.
func (e *Executor) Process(ctx context.Context, id string) (Outcome, error) {
	ctx = logger.SetComponent(logger.SetItemID(ctx, id), "executor")
	start := time.Now()

	item, err := e.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		logger.CtxDebug(ctx, "Item vanished, skipping")
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("load item: %w", err)
	}
	if item.Status != domain.StatusQAPassed {
		logger.CtxDebug(ctx, "Item is %s, skipping", item.Status)
		return OutcomeSkipped, nil
	}

	claimedAt := e.now()
	if err := e.store.Claim(ctx, id, domain.StatusQAPassed, domain.StatusProcessing, claimedAt); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			logger.CtxDebug(ctx, "Item claimed elsewhere, skipping")
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("claim item: %w", err)
	}
	item.Status = domain.StatusProcessing
	item.ProcessingStartedAt = &claimedAt

	outcome, err := e.run(ctx, item)
	logger.With(logger.Fields{logger.FieldStatus: item.Status}).Since(start).
		Info(ctx, "Item %s", outcome)
	return outcome, err
}

func (e *Executor) run(ctx context.Context, item *domain.WorkItem) (Outcome, error) {
	if msg := validateItem(e.validate, item); msg != "" {
		return e.fail(ctx, item, StepValidation, msg)
	}

	e.enricher.Enrich(ctx, item)

	externalID := item.ExternalID
	if externalID == "" {
		pubCtx := logger.SetStage(ctx, StepPublish)
		id, err := e.publisher.CreateProduct(pubCtx, domain.NewListing(item, e.cfg.Vendor, e.now()))
		if err != nil {
			return e.fail(ctx, item, StepPublish, err.Error())
		}
		externalID = id
	} else {
		logger.CtxWarn(ctx, "Item already has external id %s, not publishing again", externalID)
	}

	if err := item.MarkPublished(externalID, e.now()); err != nil {
		return OutcomeSkipped, err
	}
	if err := e.store.SaveTransition(ctx, item, domain.StatusProcessing); err != nil {
		return OutcomePublished, fmt.Errorf("persist published item %s (external id %s): %w", item.ID, externalID, err)
	}

	e.notify(ctx, fmt.Sprintf("Published: %s", item.Title),
		fmt.Sprintf("<p><b>%s</b> is live as product %s (%s).</p>",
			html.EscapeString(item.Title), html.EscapeString(externalID), item.Category))
	return OutcomePublished, nil
}

func (e *Executor) fail(ctx context.Context, item *domain.WorkItem, step, message string) (Outcome, error) {
	logger.FromContext(ctx).WithFields(logger.Fields{logger.FieldStage: step}).
		Warnf("Item failed: %s", message)

	if err := item.MarkFailed(step, message, e.now()); err != nil {
		return OutcomeSkipped, err
	}
	if err := e.store.SaveTransition(ctx, item, domain.StatusProcessing); err != nil {
		return OutcomeFailed, fmt.Errorf("persist failed item: %w", err)
	}

	e.notify(ctx, fmt.Sprintf("Failed: %s", item.Title),
		fmt.Sprintf("<p><b>%s</b> failed at %s: %s</p>",
			html.EscapeString(item.Title), step, html.EscapeString(message)))
	return OutcomeFailed, nil
}

// notify never affects item state.
func (e *Executor) notify(ctx context.Context, subject, body string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, subject, body); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Notification failed")
	}
}
