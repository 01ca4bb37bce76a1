package producer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
	"github.com/timmy/ghostline/internal/source"
)

type sliceSource struct {
	drafts  []source.Draft
	failAt  int
	fetches int
}

func (s *sliceSource) GetSourceID() string    { return "test" }
func (s *sliceSource) GetDisplayName() string { return "Test" }

func (s *sliceSource) FetchBatch(_ context.Context, cursor string, limit int) ([]source.Draft, string, error) {
	s.fetches++
	if s.failAt > 0 && s.fetches >= s.failAt {
		return nil, "", errors.New("source offline")
	}
	start := 0
	if cursor != "" {
		start = len(cursor)
	}
	end := start + limit
	if end > len(s.drafts) {
		end = len(s.drafts)
	}
	next := ""
	if end < len(s.drafts) {
		// cursor length encodes the offset
		for i := 0; i < end; i++ {
			next += "."
		}
	}
	return s.drafts[start:end], next, nil
}

func draft(title string) source.Draft {
	return source.Draft{
		Ref:        title,
		Title:      title,
		Category:   domain.CategoryAutomationKit,
		Niche:      "productivity",
		Price:      39,
		Currency:   "USD",
		Confidence: 0.9,
	}
}

func distinctDrafts() []source.Draft {
	return []source.Draft{
		draft("Notion CRM System"),
		draft("Email Winback Flows"),
		draft("Freelance Onboarding Checklist"),
		draft("YouTube Hooks Library"),
		draft("Landing Page Copy"),
	}
}

func setup(t *testing.T, policy curation.Policy) (*Service, *repository.ItemRepository) {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ghostline.db"),
	}, logger.New(logger.DefaultConfig()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	items := repository.NewItemRepository(db)
	gate := curation.NewGate(items, policy)
	return NewService(gate, items, 2), items
}

func TestProduce_PeriodCapIsSequential(t *testing.T) {
	svc, items := setup(t, curation.Policy{MaxPerPeriod: 3})
	src := &sliceSource{drafts: distinctDrafts()}

	stats, err := svc.Produce(context.Background(), src, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Admitted)
	assert.Equal(t, 2, stats.Denied)
	assert.Equal(t, 2, stats.ByRule[domain.RulePeriodCap])
	assert.Len(t, stats.Created, 3)
	assert.Equal(t, 3, src.fetches)

	stored, err := items.ListByStatus(context.Background(), domain.StatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "test", stored[0].Source)
}

func TestProduce_DuplicateTitleDenied(t *testing.T) {
	svc, _ := setup(t, curation.Policy{SimilarityThreshold: 70})
	src := &sliceSource{drafts: []source.Draft{
		draft("Notion CRM System"),
		draft("Notion CRM System!"),
	}}

	stats, err := svc.Produce(context.Background(), src, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Admitted)
	assert.Equal(t, 1, stats.ByRule[domain.RuleSimilarity])
}

func TestProduce_LimitAndDryRun(t *testing.T) {
	svc, items := setup(t, curation.Policy{})
	src := &sliceSource{drafts: distinctDrafts()}

	stats, err := svc.Produce(context.Background(), src, 3, &Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Admitted)
	assert.Empty(t, stats.Created)

	counts, err := items.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[domain.StatusPending])
}

func TestProduce_ManualReview(t *testing.T) {
	svc, items := setup(t, curation.Policy{ManualReview: true})
	src := &sliceSource{drafts: distinctDrafts()[:1]}

	stats, err := svc.Produce(context.Background(), src, 5, nil)
	require.NoError(t, err)
	require.Len(t, stats.Created, 1)

	item, err := items.GetByID(context.Background(), stats.Created[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingReview, item.Status)
}

func TestProduce_FetchErrorKeepsPartialStats(t *testing.T) {
	svc, _ := setup(t, curation.Policy{})
	src := &sliceSource{drafts: distinctDrafts(), failAt: 2}

	stats, err := svc.Produce(context.Background(), src, 10, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source offline")
	assert.Equal(t, 2, stats.Admitted)
}

func TestProduce_LowConfidenceDenied(t *testing.T) {
	svc, _ := setup(t, curation.Policy{MinConfidence: 0.95})
	src := &sliceSource{drafts: distinctDrafts()[:2]}

	stats, err := svc.Produce(context.Background(), src, 5, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Admitted)
	assert.Equal(t, 2, stats.ByRule[domain.RuleConfidence])
}
