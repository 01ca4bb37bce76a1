package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/api/handler"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/pipeline"
	"github.com/timmy/ghostline/internal/producer"
	"github.com/timmy/ghostline/internal/repository"
	"github.com/timmy/ghostline/internal/service"
	"github.com/timmy/ghostline/internal/source"
	"github.com/timmy/ghostline/internal/source/oracle"
)

const token = "test-token"

type stubMailer struct{ sent int }

func (m *stubMailer) SendEmail(context.Context, []string, string, string) (string, error) {
	m.sent++
	return "msg", nil
}

type testServer struct {
	router *gin.Engine
	items  *repository.ItemRepository
	mailer *stubMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, logger.New(logger.DefaultConfig()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	items := repository.NewItemRepository(db)
	gate := curation.NewGate(items, curation.Policy{MinConfidence: 0.5, SimilarityThreshold: 70})
	mailer := &stubMailer{}
	recs := service.NewRecommendationService(repository.NewRecommendationRepository(db), mailer,
		service.RecommendationConfig{MarketingList: []string{"list@example.com"}})

	router := SetupRouter(config.ServerConfig{Mode: "test", APIToken: token}, Deps{
		Ping:            func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		Items:           items,
		Counter:         items,
		Operator:        pipeline.NewOperator(items),
		Gate:            gate,
		Recommendations: recs,
		Producer:        producer.NewService(gate, items, 5),
		Sources:         map[string]source.Source{"oracle": oracle.NewAdapter(3)},
	})
	return &testServer{router: router, items: items, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthNeedsNoToken(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestItemEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	draft := &domain.WorkItem{Source: "oracle", Title: "Solo Automation Kit", Category: domain.CategoryAutomationKit, Price: 29, Status: domain.StatusDraft}
	failed := &domain.WorkItem{Source: "oracle", Title: "Broken Kit", Category: domain.CategoryAutomationKit, Price: 0, Status: domain.StatusFailed}
	require.NoError(t, s.items.Create(ctx, draft))
	require.NoError(t, s.items.Create(ctx, failed))

	w := s.do(t, http.MethodGet, "/api/v1/items?status=draft", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[handler.ListItemsResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, draft.ID, list.Items[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/items?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/items/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/items/"+draft.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusQAPassed, decode[domain.WorkItem](t, w).Status)

	// second approve: no longer a draft
	w = s.do(t, http.MethodPost, "/api/v1/items/"+draft.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/items/"+failed.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusQAPassed, decode[domain.WorkItem](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/v1/items/"+failed.ID+"/reset", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[handler.StatsResponse](t, w)
	assert.Equal(t, int64(2), stats.Items[domain.StatusQAPassed])
	assert.Equal(t, int64(0), stats.Items[domain.StatusPublished])
	assert.Equal(t, int64(2), stats.Total)
	assert.Nil(t, stats.Queue)
}

func TestItemReviewEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	held := &domain.WorkItem{Source: "staging:spring", Title: "Held Prompt Pack", Category: domain.CategoryPromptPack, Price: 9, Status: domain.StatusPendingReview}
	junk := &domain.WorkItem{Source: "staging:spring", Title: "Junk Prompt Pack", Category: domain.CategoryPromptPack, Price: 9, Status: domain.StatusPendingReview}
	require.NoError(t, s.items.Create(ctx, held))
	require.NoError(t, s.items.Create(ctx, junk))

	w := s.do(t, http.MethodPost, "/api/v1/items/"+held.ID+"/release", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusPending, decode[domain.WorkItem](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/v1/items/"+junk.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusArchivedJunk, decode[domain.WorkItem](t, w).Status)

	w = s.do(t, http.MethodPost, "/api/v1/items/"+junk.ID+"/archive", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, action := range []string{"approve", "release"} {
		w = s.do(t, http.MethodPost, "/api/v1/items/missing/"+action, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, action)
	}
}

func TestAdmissionEvaluate(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.items.Create(context.Background(), &domain.WorkItem{
		Source: "oracle", Title: "Notion CRM System", Category: domain.CategoryAutomationKit, Niche: "agency ops", Price: 39, Status: domain.StatusPending,
	}))

	w := s.do(t, http.MethodPost, "/api/v1/admission/evaluate", domain.Candidate{
		Source: "oracle", Category: domain.CategoryAutomationKit, Niche: "agency ops", Title: "Notion CRM System", Confidence: 0.9,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decision := decode[domain.AdmissionDecision](t, w)
	assert.False(t, decision.Admitted)
	assert.Equal(t, domain.RuleSimilarity, decision.Rule)

	w = s.do(t, http.MethodPost, "/api/v1/admission/evaluate", domain.Candidate{
		Source: "oracle", Category: domain.CategoryBundle, Title: "Creator Growth Bundle", Confidence: 0.9,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decision = decode[domain.AdmissionDecision](t, w)
	assert.True(t, decision.Admitted)
	assert.Equal(t, domain.StatusPending, decision.EntryStatus)

	w = s.do(t, http.MethodPost, "/api/v1/admission/evaluate", map[string]any{"source": "oracle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendationFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/recommendations", handler.CreateRecommendationRequest{
		Kind: domain.KindMarketing, Title: "Weekend bundle promo", Body: "Push bundles.",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decode[domain.Recommendation](t, w)
	assert.Equal(t, domain.RecommendationPending, rec.Status)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations/"+rec.ID+"/execute", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations/"+rec.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations/"+rec.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[domain.Recommendation](t, w)
	assert.Equal(t, domain.RecommendationCompleted, done.Status)
	assert.EqualValues(t, 1, done.Metrics["recipients"])
	assert.Equal(t, 1, s.mailer.sent)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations/"+rec.ID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/recommendations?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]domain.Recommendation](t, w)["recommendations"], 1)

	w = s.do(t, http.MethodPost, "/api/v1/recommendations", map[string]string{"kind": "banner", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducerRun(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/producer/run", handler.ProduceRequest{Source: "oracle", Limit: 3, DryRun: true})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handler.ProduceResponse](t, w)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 3, resp.Stats.Total)

	w = s.do(t, http.MethodPost, "/api/v1/producer/run", handler.ProduceRequest{Source: "nope", Limit: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/producer/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[handler.ProducerStatusResponse](t, w)
	assert.False(t, status.IsRunning)
	assert.Equal(t, []handler.SourceInfo{{ID: "oracle", DisplayName: oracle.SourceName}}, status.Sources)
	assert.Equal(t, "success", status.LastRunStatus)
}
