package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/producer"
	"github.com/timmy/ghostline/internal/source"
)

// Producer runs one production pass.
type Producer interface {
	Produce(ctx context.Context, src source.Source, limit int, opts *producer.Options) (*producer.Stats, error)
}

// ProducerHandler triggers production runs. Only one run is active at a time.
type ProducerHandler struct {
	producer Producer
	sources  map[string]source.Source

	mu            sync.RWMutex
	isRunning     bool
	lastStats     *producer.Stats
	lastRunTime   time.Time
	lastRunStatus string
}

func NewProducerHandler(p Producer, sources map[string]source.Source) *ProducerHandler {
	return &ProducerHandler{producer: p, sources: sources}
}

// ProduceRequest is the body of POST /api/v1/producer/run.
type ProduceRequest struct {
	Source string `json:"source" binding:"required"`
	Limit  int    `json:"limit" binding:"required,min=1,max=500"`
	DryRun bool   `json:"dryRun"`
}

type ProduceResponse struct {
	Message string          `json:"message"`
	Stats   *producer.Stats `json:"stats,omitempty"`
}

// SourceInfo names a draft source for the status endpoint.
type SourceInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type ProducerStatusResponse struct {
	IsRunning     bool            `json:"isRunning"`
	Sources       []SourceInfo    `json:"sources"`
	LastRunTime   string          `json:"lastRunTime,omitempty"`
	LastRunStatus string          `json:"lastRunStatus,omitempty"`
	LastStats     *producer.Stats `json:"lastStats,omitempty"`
}

// Run handles POST /api/v1/producer/run. The run is synchronous and detached
// from the request's cancellation.
func (h *ProducerHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	var req ProduceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, ok := h.sources[req.Source]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source: " + req.Source})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Production request rejected: already running, source=%s", req.Source)
		c.JSON(http.StatusConflict, gin.H{"error": "production is already running"})
		return
	}
	h.isRunning = true
	h.mu.Unlock()

	stats, err := h.producer.Produce(context.WithoutCancel(ctx), src, req.Limit, &producer.Options{DryRun: req.DryRun})

	h.mu.Lock()
	h.isRunning = false
	h.lastStats = stats
	h.lastRunTime = time.Now()
	h.lastRunStatus = "success"
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	}
	h.mu.Unlock()

	if err != nil {
		logger.CtxError(ctx, "Production failed: source=%s, error=%v", req.Source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
		return
	}
	c.JSON(http.StatusOK, ProduceResponse{Message: "production completed", Stats: stats})
}

// Status handles GET /api/v1/producer/status.
func (h *ProducerHandler) Status(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sources := make([]SourceInfo, 0, len(h.sources))
	for id, src := range h.sources {
		sources = append(sources, SourceInfo{ID: id, DisplayName: src.GetDisplayName()})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	resp := ProducerStatusResponse{
		IsRunning:     h.isRunning,
		Sources:       sources,
		LastRunStatus: h.lastRunStatus,
		LastStats:     h.lastStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
