package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/globetrotter/tour-platform/internal/model"
)

type GuideRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Guide, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Guide, error)
	// Hold the guide's row for the transaction. Serializes concurrent
	// license allocations for one guide.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Guide, error)
	// Update the guide's preferred license.
	SetLicense(ctx context.Context, id uuid.UUID, licenseID uuid.UUID) error
}

type GormGuideRepository struct {
	db *gorm.DB
}

func NewGormGuideRepository(db *gorm.DB) *GormGuideRepository {
	return &GormGuideRepository{db: db}
}

func (r *GormGuideRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Guide, error) {
	var g model.Guide
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GormGuideRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Guide, error) {
	var g model.Guide
	if err := r.db.WithContext(ctx).First(&g, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// LockByID issues SELECT ... FOR UPDATE on postgres. sqlite (tests) has no
// row locks and serializes writers itself, so the clause is skipped there.
func (r *GormGuideRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Guide, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var g model.Guide
	if err := q.First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GormGuideRepository) SetLicense(ctx context.Context, id uuid.UUID, licenseID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Guide{}).
		Where("id = ?", id).
		Update("license_id", licenseID).Error
}
