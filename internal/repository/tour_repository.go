package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
)

type TourRepository interface {
	// Tour by id together with its guide.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	// All tour ids, used to rebuild next_events.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type GormTourRepository struct {
	db *gorm.DB
}

func NewGormTourRepository(db *gorm.DB) *GormTourRepository {
	return &GormTourRepository{db: db}
}

func (r *GormTourRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	var t model.Tour
	err := r.db.WithContext(ctx).
		Preload("Guide").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTourRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Tour{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
