package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/domain"
)

// StatusCounter counts items per status.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[domain.ItemStatus]int64, error)
}

// QueueState exposes the work queue's live state.
type QueueState interface {
	Len() int
	Draining() bool
	Processed() int64
}

type StatsHandler struct {
	counter StatusCounter
	queue   QueueState
}

// NewStatsHandler creates a stats handler. queue is nil outside the daemon.
func NewStatsHandler(counter StatusCounter, queue QueueState) *StatsHandler {
	return &StatsHandler{counter: counter, queue: queue}
}

type QueueStats struct {
	Length    int   `json:"length"`
	Draining  bool  `json:"draining"`
	Processed int64 `json:"processed"`
}

type StatsResponse struct {
	Items map[domain.ItemStatus]int64 `json:"items"`
	Total int64                       `json:"total"`
	Queue *QueueStats                 `json:"queue,omitempty"`
}

// GetStats handles GET /api/v1/stats. Every known status is present.
func (h *StatsHandler) GetStats(c *gin.Context) {
	counts, err := h.counter.CountByStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatsResponse{Items: make(map[domain.ItemStatus]int64)}
	for _, s := range domain.ItemLifecycle.States() {
		resp.Items[s] = counts[s]
		resp.Total += counts[s]
	}
	if h.queue != nil {
		resp.Queue = &QueueStats{
			Length:    h.queue.Len(),
			Draining:  h.queue.Draining(),
			Processed: h.queue.Processed(),
		}
	}
	c.JSON(http.StatusOK, resp)
}
