package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/source"
)

// Gate evaluates candidates before they are stored.
type Gate interface {
	Evaluate(ctx context.Context, c domain.Candidate) (domain.AdmissionDecision, error)
}

// Store creates admitted work items.
type Store interface {
	Create(ctx context.Context, item *domain.WorkItem) error
}

// Service pulls drafts from a source, admits them through the gate and
// creates work items. Candidates are handled one at a time so every quota
// count observes the admissions before it.
type Service struct {
	gate      Gate
	store     Store
	batchSize int
}

func NewService(gate Gate, store Store, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Service{gate: gate, store: store, batchSize: batchSize}
}

// Stats holds counters for one production run.
type Stats struct {
	Total    int            `json:"total"`
	Admitted int            `json:"admitted"`
	Denied   int            `json:"denied"`
	Failed   int            `json:"failed"`
	ByRule   map[string]int `json:"byRule"`
	Created  []string       `json:"created"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
}

// Options tunes a production run.
type Options struct {
	DryRun bool // evaluate only, create nothing
}

// Produce fetches up to limit drafts from src and stores the admitted ones.
// Fetch errors end the run early and are returned with the partial stats.
func (s *Service) Produce(ctx context.Context, src source.Source, limit int, opts *Options) (*Stats, error) {
	if opts == nil {
		opts = &Options{}
	}

	stats := &Stats{ByRule: map[string]int{}, Start: time.Now()}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "producer",
		logger.FieldSource:    src.GetSourceID(),
	})
	logger.CtxInfo(ctx, "Starting production: limit=%d dry_run=%v", limit, opts.DryRun)

	var runErr error
	cursor := ""
	for ctx.Err() == nil && stats.Total < limit {
		batchLimit := s.batchSize
		if remaining := limit - stats.Total; batchLimit > remaining {
			batchLimit = remaining
		}

		drafts, next, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			runErr = fmt.Errorf("fetch from %s: %w", src.GetSourceID(), err)
			break
		}
		if len(drafts) == 0 {
			break
		}

		for _, d := range drafts {
			if ctx.Err() != nil {
				break
			}
			stats.Total++
			s.handle(ctx, src.GetSourceID(), d, opts, stats)
		}

		if next == "" {
			break
		}
		cursor = next
	}
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	stats.End = time.Now()
	logger.With(logger.Fields{
		"total":    stats.Total,
		"admitted": stats.Admitted,
		"denied":   stats.Denied,
		"failed":   stats.Failed,
	}).Since(stats.Start).Info(ctx, "Production completed")

	return stats, runErr
}

func (s *Service) handle(ctx context.Context, sourceID string, d source.Draft, opts *Options, stats *Stats) {
	decision, err := s.gate.Evaluate(ctx, d.Candidate(sourceID))
	if err != nil {
		stats.Failed++
		logger.FromContext(ctx).WithError(err).Errorf("Admission check failed for %s", d.Ref)
		return
	}
	if !decision.Admitted {
		stats.Denied++
		stats.ByRule[decision.Rule]++
		return
	}

	stats.Admitted++
	if opts.DryRun {
		return
	}

	item := d.WorkItem(sourceID, decision.EntryStatus)
	if err := s.store.Create(ctx, item); err != nil {
		stats.Admitted--
		stats.Failed++
		logger.FromContext(ctx).WithError(err).Errorf("Failed to create item for %s", d.Ref)
		return
	}
	stats.Created = append(stats.Created, item.ID)
	logger.CtxInfo(logger.SetItemID(ctx, item.ID), "Created %s item %q as %s", item.Category, item.Title, item.Status)
}
