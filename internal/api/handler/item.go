package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ghostline/internal/domain"
)

// ItemReader is the read side of the item store.
type ItemReader interface {
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListByStatus(ctx context.Context, status domain.ItemStatus, limit, offset int) ([]domain.WorkItem, error)
}

// ItemOperator performs manual item transitions.
type ItemOperator interface {
	Approve(ctx context.Context, id string) (*domain.WorkItem, error)
	Reset(ctx context.Context, id string) (*domain.WorkItem, error)
	Release(ctx context.Context, id string) (*domain.WorkItem, error)
	Archive(ctx context.Context, id string) (*domain.WorkItem, error)
}

// ItemHandler serves work items.
type ItemHandler struct {
	items    ItemReader
	operator ItemOperator
}

func NewItemHandler(items ItemReader, operator ItemOperator) *ItemHandler {
	return &ItemHandler{items: items, operator: operator}
}

// ListItemsResponse wraps one page of items.
type ListItemsResponse struct {
	Items  []domain.WorkItem `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ListItems handles GET /api/v1/items?status=&limit=&offset=.
func (h *ItemHandler) ListItems(c *gin.Context) {
	var status domain.ItemStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := domain.ParseItemStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = parsed
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
		return
	}

	items, err := h.items.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []domain.WorkItem{}
	}
	c.JSON(http.StatusOK, ListItemsResponse{Items: items, Limit: limit, Offset: offset})
}

// GetItem handles GET /api/v1/items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.items.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ApproveItem handles POST /api/v1/items/:id/approve (draft -> qa_passed).
func (h *ItemHandler) ApproveItem(c *gin.Context) {
	item, err := h.operator.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ResetItem handles POST /api/v1/items/:id/reset (failed|processing -> qa_passed).
func (h *ItemHandler) ResetItem(c *gin.Context) {
	item, err := h.operator.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ReleaseItem handles POST /api/v1/items/:id/release (pending_review -> pending).
func (h *ItemHandler) ReleaseItem(c *gin.Context) {
	h.operate(c, h.operator.Release)
}

// ArchiveItem handles POST /api/v1/items/:id/archive.
func (h *ItemHandler) ArchiveItem(c *gin.Context) {
	h.operate(c, h.operator.Archive)
}

func (h *ItemHandler) operate(c *gin.Context, fn func(context.Context, string) (*domain.WorkItem, error)) {
	item, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
