package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/domain"
)

// Recommendations is the recommendation workflow.
type Recommendations interface {
	Create(ctx context.Context, kind domain.RecommendationKind, title, body string) (*domain.Recommendation, error)
	Get(ctx context.Context, id string) (*domain.Recommendation, error)
	List(ctx context.Context, status domain.RecommendationStatus, limit int) ([]domain.Recommendation, error)
	Approve(ctx context.Context, id string) (*domain.Recommendation, error)
	Reject(ctx context.Context, id string) (*domain.Recommendation, error)
	Execute(ctx context.Context, id string) (*domain.Recommendation, error)
	Retry(ctx context.Context, id string) (*domain.Recommendation, error)
}

type RecommendationHandler struct {
	svc Recommendations
}

func NewRecommendationHandler(svc Recommendations) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// CreateRecommendationRequest is the body of POST /api/v1/recommendations.
type CreateRecommendationRequest struct {
	Kind  domain.RecommendationKind `json:"kind" binding:"required,oneof=marketing design"`
	Title string                    `json:"title" binding:"required,max=200"`
	Body  string                    `json:"body"`
}

func (h *RecommendationHandler) List(c *gin.Context) {
	var status domain.RecommendationStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := domain.RecommendationLifecycle.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = parsed
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	recs, err := h.svc.List(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *RecommendationHandler) Create(c *gin.Context) {
	var req CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), req.Kind, req.Title, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *RecommendationHandler) Get(c *gin.Context) {
	h.respond(c, h.svc.Get)
}

func (h *RecommendationHandler) Approve(c *gin.Context) {
	h.respond(c, h.svc.Approve)
}

func (h *RecommendationHandler) Reject(c *gin.Context) {
	h.respond(c, h.svc.Reject)
}

// Execute runs the recommendation synchronously. A failed delivery still
// answers 200 with status "failed" and the error message.
func (h *RecommendationHandler) Execute(c *gin.Context) {
	h.respond(c, h.svc.Execute)
}

// Retry moves a failed recommendation back to approved.
func (h *RecommendationHandler) Retry(c *gin.Context) {
	h.respond(c, h.svc.Retry)
}

func (h *RecommendationHandler) respond(c *gin.Context, fn func(context.Context, string) (*domain.Recommendation, error)) {
	rec, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
