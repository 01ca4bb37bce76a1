package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/ghostline/internal/domain"
	"gorm.io/gorm"
)

// ItemRepository is the work item collection of the state store.
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item, assigning an ID when none is set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - item: item to persist; its status must belong to the item lifecycle.
// Returns:
//   - error: non-nil if the status is unknown or the insert fails.
func (r *ItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	if !domain.ItemLifecycle.Known(item.Status) {
		return fmt.Errorf("create item: %w %q", domain.ErrUnknownStatus, item.Status)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Currency == "" {
		item.Currency = "USD"
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID retrieves an item by ID.
// Returns:
//   - *domain.WorkItem: the item if found.
//   - error: ErrNotFound if no item has this ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	var item domain.WorkItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByStatus returns items in a status, oldest first. An empty status
// lists every item; a non-positive limit means no limit.
func (r *ItemRepository) ListByStatus(ctx context.Context, status domain.ItemStatus, limit, offset int) ([]domain.WorkItem, error) {
	q := r.db.WithContext(ctx).Model(&domain.WorkItem{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var items []domain.WorkItem
	if err := q.Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatus returns the number of items per status.
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[domain.ItemStatus]int64, error) {
	var rows []struct {
		Status domain.ItemStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.WorkItem{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.ItemStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Claim moves an item from one status to another with a conditional write.
// Moving into processing stamps the lease (processing_started_at).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: item ID.
//   - from: status the item must currently have.
//   - to: target status; from -> to must be a lifecycle edge.
//   - at: timestamp for the write.
// Returns:
//   - error: ErrNotFound if no item has this ID, ErrStatusConflict if the
//     item is not in from, a *domain.TransitionError if the edge is not allowed.
func (r *ItemRepository) Claim(ctx context.Context, id string, from, to domain.ItemStatus, at time.Time) error {
	if err := domain.ItemLifecycle.Transition(from, to); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at.UTC(),
	}
	if to == domain.StatusProcessing {
		updates["processing_started_at"] = at.UTC()
	}

	res := r.db.WithContext(ctx).Model(&domain.WorkItem{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict explains a guarded update that matched no row.
func (r *ItemRepository) missOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.WorkItem{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}

// SaveTransition writes the whole item in one update, guarded by the status
// the caller last observed. expected -> item.Status must be a lifecycle edge,
// a reset edge, or no change.
// Returns:
//   - error: ErrStatusConflict if the stored status is no longer expected.
func (r *ItemRepository) SaveTransition(ctx context.Context, item *domain.WorkItem, expected domain.ItemStatus) error {
	if item.Status != expected &&
		!domain.ItemLifecycle.CanTransition(expected, item.Status) &&
		!domain.ItemLifecycle.CanReset(expected, item.Status) {
		return domain.ItemLifecycle.Transition(expected, item.Status)
	}

	res := r.db.WithContext(ctx).Model(item).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// CountAdmittedSince counts items a source created at or after since,
// whatever their current status.
func (r *ItemRepository) CountAdmittedSince(ctx context.Context, source string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.WorkItem{}).
		Where("source = ? AND created_at >= ?", source, since.UTC()).
		Count(&n).Error
	return n, err
}

// CountLiveByCategory counts items of a category that are not failed or archived.
func (r *ItemRepository) CountLiveByCategory(ctx context.Context, category domain.Category) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.WorkItem{}).
		Where("category = ? AND status IN ?", category, domain.LiveStatuses()).
		Count(&n).Error
	return n, err
}

// TitleRef is a live item's title for duplicate checks.
type TitleRef struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// ListLiveTitles returns titles of live items in the same category and niche,
// skipping excludeID.
func (r *ItemRepository) ListLiveTitles(ctx context.Context, category domain.Category, niche, excludeID string) ([]TitleRef, error) {
	q := r.db.WithContext(ctx).Model(&domain.WorkItem{}).
		Select("id, title, created_at").
		Where("category = ? AND niche = ? AND status IN ?", category, niche, domain.LiveStatuses())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var refs []TitleRef
	if err := q.Order("created_at ASC").Scan(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// ListStaleProcessing returns processing items whose lease started before cutoff.
func (r *ItemRepository) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.WorkItem, error) {
	var items []domain.WorkItem
	err := r.db.WithContext(ctx).
		Where("status = ? AND processing_started_at < ?", domain.StatusProcessing, cutoff.UTC()).
		Order("processing_started_at ASC").
		Find(&items).Error
	return items, err
}
