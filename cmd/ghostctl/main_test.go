package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/repository"
)

type cliTestEnv struct {
	configPath string
	items      *repository.ItemRepository
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	dbPath := filepath.Join(base, "ghostline.db")
	configPath := filepath.Join(base, "config.yaml")
	body := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\npipeline:\n  stale_after: 10m\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))

	db, err := repository.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: dbPath},
		logger.New(&logger.Config{Level: "error", Output: io.Discard}))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return &cliTestEnv{configPath: configPath, items: repository.NewItemRepository(db)}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliTestEnv) seed(t *testing.T, item *domain.WorkItem) *domain.WorkItem {
	t.Helper()
	if item.Source == "" {
		item.Source = "oracle"
	}
	if item.Category == "" {
		item.Category = domain.CategoryBundle
	}
	require.NoError(t, e.items.Create(context.Background(), item))
	return item
}

func TestListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	draft := env.seed(t, &domain.WorkItem{Title: "Creator Growth Bundle", Price: 49, Status: domain.StatusDraft})
	env.seed(t, &domain.WorkItem{Title: "Old Bundle", Price: 19, Status: domain.StatusPublished})

	out, err := env.run(t, "list", "--status", "draft")
	require.NoError(t, err)
	assert.Contains(t, out, draft.ID)
	assert.Contains(t, out, "Creator Growth Bundle")
	assert.NotContains(t, out, "Old Bundle")

	out, err = env.run(t, "--json", "list")
	require.NoError(t, err)
	var listed []domain.WorkItem
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 2)

	out, err = env.run(t, "show", draft.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "49.00 USD")
	assert.Contains(t, out, "Bundle")

	_, err = env.run(t, "show", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = env.run(t, "list", "--status", "bogus")
	assert.Error(t, err)
}

func TestOperatorCommandsAndStats(t *testing.T) {
	env := setupCLITestEnv(t)
	draft := env.seed(t, &domain.WorkItem{Title: "Support Automation Kit", Price: 29, Status: domain.StatusDraft})
	held := env.seed(t, &domain.WorkItem{Title: "Held Bundle", Price: 39, Status: domain.StatusPendingReview})

	out, err := env.run(t, "approve", draft.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "is now qa_passed")

	_, err = env.run(t, "approve", draft.ID)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	out, err = env.run(t, "release", held.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "is now pending")

	out, err = env.run(t, "--json", "stats")
	require.NoError(t, err)
	var counts map[domain.ItemStatus]int64
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	assert.Equal(t, int64(1), counts[domain.StatusQAPassed])
	assert.Equal(t, int64(1), counts[domain.StatusPending])

	out, err = env.run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "archived_junk")
	assert.Contains(t, out, "total")
}

func TestSweepCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	started := time.Now().UTC().Add(-time.Hour)
	stuck := env.seed(t, &domain.WorkItem{Title: "Stuck Bundle", Price: 49, Status: domain.StatusProcessing, ProcessingStartedAt: &started})

	_, err := env.run(t, "sweep", "--action", "retry")
	assert.Error(t, err)

	out, err := env.run(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "1 failed")

	item, err := env.items.GetByID(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	require.NotNil(t, item.ErrorDetail)
	assert.Equal(t, "Lease", item.ErrorDetail.Step)

	out, err = env.run(t, "reset", stuck.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "is now qa_passed")
}

func TestCurateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, &domain.WorkItem{Title: "Ultimate Creator Growth Bundle", Price: 49, Status: domain.StatusPublished})

	out, err := env.run(t, "--json", "curate", "--title", "Freelancer Invoice Toolkit", "--category", "automation_kit")
	require.NoError(t, err)
	var decision domain.AdmissionDecision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.True(t, decision.Admitted)
	assert.Equal(t, domain.StatusPending, decision.EntryStatus)

	out, err = env.run(t, "--json", "curate", "--title", "Ultimate Creator Growth Bundle", "--category", "bundle")
	require.NoError(t, err)
	decision = domain.AdmissionDecision{}
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.False(t, decision.Admitted)
	assert.Equal(t, domain.RuleSimilarity, decision.Rule)

	out, err = env.run(t, "curate", "--title", "Anything", "--category", "ebook")
	require.NoError(t, err)
	assert.Contains(t, out, "denied")
	assert.Contains(t, out, curation.RuleInvalid)

	_, err = env.run(t, "curate", "--category", "bundle")
	assert.Error(t, err, "title is required")
}
