package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/api/middleware"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/repository"
)

// respondError maps store and lifecycle errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var te *domain.TransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "status changed concurrently, reload and retry"})
	case errors.As(err, &te):
		c.JSON(http.StatusConflict, gin.H{"error": te.Error()})
	default:
		middleware.GetLogger(c).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
