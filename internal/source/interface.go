package source

import (
	"context"
	"strings"

	"github.com/timmy/ghostline/internal/domain"
)

// Draft is a product a source proposes, before admission.
type Draft struct {
	Ref            string // Unique reference within the source
	Title          string
	Category       domain.Category
	Niche          string
	Price          float64
	Currency       string
	Description    string
	DigitalContent string
	ImagePrompt    string
	ImageURL       string
	Tags           []string
	Confidence     float64
	Metrics        *domain.ItemMetrics
}

// Candidate returns the admission view of the draft.
func (d Draft) Candidate(sourceID string) domain.Candidate {
	return domain.Candidate{
		Source:     sourceID,
		Category:   d.Category,
		Niche:      d.Niche,
		Title:      strings.TrimSpace(d.Title),
		Confidence: d.Confidence,
	}
}

// WorkItem builds the record to store once the draft is admitted.
func (d Draft) WorkItem(sourceID string, status domain.ItemStatus) *domain.WorkItem {
	return &domain.WorkItem{
		Source:         sourceID,
		Title:          strings.TrimSpace(d.Title),
		Category:       d.Category,
		Niche:          d.Niche,
		Price:          d.Price,
		Currency:       d.Currency,
		Description:    d.Description,
		DigitalContent: d.DigitalContent,
		ImagePrompt:    d.ImagePrompt,
		ImageURL:       d.ImageURL,
		Tags:           domain.StringArray(d.Tags),
		Confidence:     d.Confidence,
		Metrics:        d.Metrics,
		Status:         status,
	}
}

// Source defines the interface for draft producers.
type Source interface {
	// GetSourceID returns the stable identifier stored on created items.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches a batch of drafts starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of drafts to fetch.
	// Returns:
	//   - drafts: batch of drafts.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (drafts []Draft, nextCursor string, err error)
}
