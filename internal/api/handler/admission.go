package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/domain"
)

// Evaluator runs the admission rules.
type Evaluator interface {
	Evaluate(ctx context.Context, c domain.Candidate) (domain.AdmissionDecision, error)
}

type AdmissionHandler struct {
	gate Evaluator
}

func NewAdmissionHandler(gate Evaluator) *AdmissionHandler {
	return &AdmissionHandler{gate: gate}
}

// Evaluate handles POST /api/v1/admission/evaluate. It is a dry run: nothing
// is stored.
func (h *AdmissionHandler) Evaluate(c *gin.Context) {
	var req domain.Candidate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.gate.Evaluate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
