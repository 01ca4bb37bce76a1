package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
)

// RecommendationStore persists recommendations.
type RecommendationStore interface {
	Create(ctx context.Context, rec *domain.Recommendation) error
	GetByID(ctx context.Context, id string) (*domain.Recommendation, error)
	List(ctx context.Context, status domain.RecommendationStatus, limit int) ([]domain.Recommendation, error)
	SaveTransition(ctx context.Context, rec *domain.Recommendation, expected domain.RecommendationStatus) error
}

// Mailer sends one email to a recipient list.
type Mailer interface {
	SendEmail(ctx context.Context, to []string, subject, html string) (string, error)
}

// RecommendationConfig names who receives executed recommendations.
type RecommendationConfig struct {
	MarketingList []string
	Operator      string
}

// RecommendationService runs the approve-then-execute flow for suggested
// marketing and design actions.
type RecommendationService struct {
	store  RecommendationStore
	mailer Mailer
	cfg    RecommendationConfig
	now    func() time.Time
}

func NewRecommendationService(store RecommendationStore, mailer Mailer, cfg RecommendationConfig) *RecommendationService {
	return &RecommendationService{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *RecommendationService) WithClock(now func() time.Time) *RecommendationService {
	s.now = now
	return s
}

// Create stores a new pending recommendation.
func (s *RecommendationService) Create(ctx context.Context, kind domain.RecommendationKind, title, body string) (*domain.Recommendation, error) {
	if kind != domain.KindMarketing && kind != domain.KindDesign {
		return nil, fmt.Errorf("unknown recommendation kind %q", kind)
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("recommendation title is required")
	}

	rec := &domain.Recommendation{
		Kind:   kind,
		Title:  strings.TrimSpace(title),
		Body:   body,
		Status: domain.RecommendationPending,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	logger.With(logger.Fields{logger.FieldRecommendationID: rec.ID}).Info(ctx, "Recommendation created: kind=%s", kind)
	return rec, nil
}

func (s *RecommendationService) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	return s.store.GetByID(ctx, id)
}

func (s *RecommendationService) List(ctx context.Context, status domain.RecommendationStatus, limit int) ([]domain.Recommendation, error) {
	return s.store.List(ctx, status, limit)
}

// Approve moves a pending recommendation to approved.
func (s *RecommendationService) Approve(ctx context.Context, id string) (*domain.Recommendation, error) {
	return s.decide(ctx, id, domain.RecommendationApproved)
}

// Reject moves a pending recommendation to rejected.
func (s *RecommendationService) Reject(ctx context.Context, id string) (*domain.Recommendation, error) {
	return s.decide(ctx, id, domain.RecommendationRejected)
}

func (s *RecommendationService) decide(ctx context.Context, id string, to domain.RecommendationStatus) (*domain.Recommendation, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := advance(rec, to); err != nil {
		return nil, err
	}
	now := s.now()
	rec.DecidedAt = &now
	if err := s.save(ctx, rec, domain.RecommendationPending); err != nil {
		return nil, err
	}
	logger.With(logger.Fields{logger.FieldRecommendationID: id}).Info(ctx, "Recommendation %s", to)
	return rec, nil
}

// Retry sends a failed recommendation back to approved so it can run again.
func (s *RecommendationService) Retry(ctx context.Context, id string) (*domain.Recommendation, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.RecommendationLifecycle.Reset(rec.Status, domain.RecommendationApproved); err != nil {
		return nil, err
	}
	prev := rec.Status
	rec.Status = domain.RecommendationApproved
	rec.ErrorMessage = ""
	rec.StartedAt = nil
	rec.CompletedAt = nil
	if err := s.save(ctx, rec, prev); err != nil {
		return nil, err
	}
	return rec, nil
}

// Execute runs an approved recommendation: approved -> executing, deliver,
// then completed or failed. A delivery failure is recorded on the
// recommendation and is not returned as an error.
func (s *RecommendationService) Execute(ctx context.Context, id string) (*domain.Recommendation, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := advance(rec, domain.RecommendationExecuting); err != nil {
		return nil, err
	}
	started := s.now()
	rec.StartedAt = &started
	if err := s.save(ctx, rec, domain.RecommendationApproved); err != nil {
		return nil, err
	}

	log := logger.With(logger.Fields{logger.FieldRecommendationID: id})
	recipients, runErr := s.deliver(ctx, rec)
	finished := s.now()
	rec.CompletedAt = &finished
	rec.Metrics = domain.JSONMap{
		"recipients":  recipients,
		"duration_ms": finished.Sub(started).Milliseconds(),
	}

	if runErr != nil {
		rec.Status = domain.RecommendationFailed
		rec.ErrorMessage = runErr.Error()
		log.Warn(ctx, "Recommendation failed: %v", runErr)
	} else {
		rec.Status = domain.RecommendationCompleted
		log.Info(ctx, "Recommendation completed: recipients=%d", recipients)
	}
	if err := s.save(ctx, rec, domain.RecommendationExecuting); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecommendationService) deliver(ctx context.Context, rec *domain.Recommendation) (int, error) {
	if s.mailer == nil {
		return 0, ErrNotifierDisabled
	}

	var to []string
	subject := rec.Title
	switch rec.Kind {
	case domain.KindMarketing:
		to = s.cfg.MarketingList
	default:
		if s.cfg.Operator != "" {
			to = []string{s.cfg.Operator}
		}
		subject = "[Design] " + rec.Title
	}
	if len(to) == 0 {
		return 0, fmt.Errorf("no recipients configured for %s recommendations", rec.Kind)
	}

	if _, err := s.mailer.SendEmail(ctx, to, subject, renderBody(rec)); err != nil {
		return 0, err
	}
	return len(to), nil
}

func advance(rec *domain.Recommendation, to domain.RecommendationStatus) error {
	if err := domain.RecommendationLifecycle.Transition(rec.Status, to); err != nil {
		return err
	}
	rec.Status = to
	return nil
}

func (s *RecommendationService) save(ctx context.Context, rec *domain.Recommendation, expected domain.RecommendationStatus) error {
	if err := s.store.SaveTransition(ctx, rec, expected); err != nil {
		return fmt.Errorf("failed to save recommendation %s: %w", rec.ID, err)
	}
	return nil
}

func renderBody(rec *domain.Recommendation) string {
	var b strings.Builder
	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(rec.Title))
	b.WriteString("</h2>")
	for _, para := range strings.Split(strings.TrimSpace(rec.Body), "\n\n") {
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
