package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/timmy/ghostline/internal/domain"
	"gorm.io/gorm"
)

// RecommendationRepository stores recommendations.
type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = domain.RecommendationPending
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecommendationRepository) GetByID(ctx context.Context, id string) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns recommendations newest first, optionally filtered by status.
func (r *RecommendationRepository) List(ctx context.Context, status domain.RecommendationStatus, limit int) ([]domain.Recommendation, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []domain.Recommendation
	return recs, q.Find(&recs).Error
}

// SaveTransition writes the whole recommendation guarded by the expected status.
func (r *RecommendationRepository) SaveTransition(ctx context.Context, rec *domain.Recommendation, expected domain.RecommendationStatus) error {
	lc := domain.RecommendationLifecycle
	if rec.Status != expected && !lc.CanTransition(expected, rec.Status) && !lc.CanReset(expected, rec.Status) {
		return lc.Transition(expected, rec.Status)
	}

	res := r.db.WithContext(ctx).Model(rec).
		Where("status = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}
