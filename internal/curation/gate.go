package curation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

// RuleInvalid denies candidates that cannot be stored at all.
const RuleInvalid = "invalid"

// Store is the read side of the state store the gate needs.
type Store interface {
	CountAdmittedSince(ctx context.Context, source string, since time.Time) (int64, error)
	CountLiveByCategory(ctx context.Context, category domain.Category) (int64, error)
	ListLiveTitles(ctx context.Context, category domain.Category, niche, excludeID string) ([]repository.TitleRef, error)
}

// Policy holds the admission thresholds. Zero caps and a zero similarity
// threshold disable their rule.
type Policy struct {
	MinConfidence       float64
	MaxPerPeriod        int
	MaxPerCategory      int
	SimilarityThreshold float64
	ManualReview        bool
	Location            *time.Location
}

// Gate decides whether candidates may become work items.
type Gate struct {
	store  Store
	policy Policy
	now    func() time.Time
}

// NewGate creates a Gate. A nil policy location means UTC.
func NewGate(store Store, policy Policy) *Gate {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Gate{store: store, policy: policy, now: time.Now}
}

// WithClock replaces the gate's clock.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Evaluate applies the admission rules cheapest first and stops at the first
// denial. Errors are store failures, never denials.
func (g *Gate) Evaluate(ctx context.Context, c domain.Candidate) (domain.AdmissionDecision, error) {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "admission_gate",
		logger.FieldSource:    c.Source,
		"title":               c.Title,
		"category":            c.Category,
	})

	decision, err := g.evaluate(ctx, c)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	if !decision.Admitted {
		logger.With(logger.Fields{logger.FieldRule: decision.Rule}).
			Info(ctx, "Candidate denied: %s", decision.Reason)
		return decision, nil
	}
	logger.With(logger.Fields{logger.FieldStatus: decision.EntryStatus}).
		Debug(ctx, "Candidate admitted")
	return decision, nil
}

func (g *Gate) evaluate(ctx context.Context, c domain.Candidate) (domain.AdmissionDecision, error) {
	if strings.TrimSpace(c.Title) == "" {
		return deny(RuleInvalid, "title is empty"), nil
	}
	if !c.Category.Valid() {
		return deny(RuleInvalid, fmt.Sprintf("category %q is not supported", c.Category)), nil
	}
	if d, ok := g.checkConfidence(c.Confidence); !ok {
		return d, nil
	}

	if g.policy.MaxPerPeriod > 0 {
		start := PeriodStart(g.now(), g.policy.Location)
		n, err := g.store.CountAdmittedSince(ctx, c.Source, start)
		if err != nil {
			return domain.AdmissionDecision{}, fmt.Errorf("count admissions: %w", err)
		}
		if n >= int64(g.policy.MaxPerPeriod) {
			return deny(domain.RulePeriodCap, fmt.Sprintf(
				"period cap reached: %d of %d admissions from %q since %s",
				n, g.policy.MaxPerPeriod, c.Source, start.Format(time.DateOnly))), nil
		}
	}

	if g.policy.MaxPerCategory > 0 {
		n, err := g.store.CountLiveByCategory(ctx, c.Category)
		if err != nil {
			return domain.AdmissionDecision{}, fmt.Errorf("count category: %w", err)
		}
		if n >= int64(g.policy.MaxPerCategory) {
			return deny(domain.RuleCategoryCap, fmt.Sprintf(
				"category cap reached: %d live %s items (max %d)",
				n, c.Category, g.policy.MaxPerCategory)), nil
		}
	}

	d, ok, err := g.checkSimilarity(ctx, c.Title, c.Category, c.Niche, "", time.Time{})
	if err != nil || !ok {
		return d, err
	}

	entry := domain.StatusPending
	if g.policy.ManualReview {
		entry = domain.StatusPendingReview
	}
	return domain.AdmissionDecision{Admitted: true, EntryStatus: entry, Similarity: d.Similarity, MatchedTitle: d.MatchedTitle}, nil
}

// Recheck applies the confidence and similarity rules to a stored item,
// comparing only against items created before it.
func (g *Gate) Recheck(ctx context.Context, item *domain.WorkItem) (domain.AdmissionDecision, error) {
	if d, ok := g.checkConfidence(item.Confidence); !ok {
		return d, nil
	}
	d, ok, err := g.checkSimilarity(ctx, item.Title, item.Category, item.Niche, item.ID, item.CreatedAt)
	if err != nil || !ok {
		return d, err
	}
	return domain.AdmissionDecision{Admitted: true, EntryStatus: item.Status, Similarity: d.Similarity, MatchedTitle: d.MatchedTitle}, nil
}

func (g *Gate) checkConfidence(confidence float64) (domain.AdmissionDecision, bool) {
	if confidence < g.policy.MinConfidence {
		return deny(domain.RuleConfidence, fmt.Sprintf(
			"confidence %.2f below minimum %.2f", confidence, g.policy.MinConfidence)), false
	}
	return domain.AdmissionDecision{}, true
}

// checkSimilarity finds the closest live title. A non-zero before restricts
// the comparison to older items.
func (g *Gate) checkSimilarity(ctx context.Context, title string, category domain.Category, niche, excludeID string, before time.Time) (domain.AdmissionDecision, bool, error) {
	if g.policy.SimilarityThreshold <= 0 {
		return domain.AdmissionDecision{}, true, nil
	}
	refs, err := g.store.ListLiveTitles(ctx, category, niche, excludeID)
	if err != nil {
		return domain.AdmissionDecision{}, false, fmt.Errorf("list titles: %w", err)
	}

	var best float64
	var matched string
	for _, ref := range refs {
		if !before.IsZero() && !ref.CreatedAt.Before(before) {
			continue
		}
		if score := Similarity(title, ref.Title, category); score > best {
			best, matched = score, ref.Title
		}
	}

	if best >= g.policy.SimilarityThreshold {
		d := deny(domain.RuleSimilarity, fmt.Sprintf(
			"similarity %.0f with %q meets threshold %.0f", best, matched, g.policy.SimilarityThreshold))
		d.Similarity, d.MatchedTitle = best, matched
		return d, false, nil
	}
	return domain.AdmissionDecision{Similarity: best, MatchedTitle: matched}, true, nil
}

func deny(rule, reason string) domain.AdmissionDecision {
	return domain.AdmissionDecision{Admitted: false, Rule: rule, Reason: reason}
}

// PeriodStart is midnight of t's calendar day in loc.
func PeriodStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
