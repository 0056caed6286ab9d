package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/timerange"
)

type LicenseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.License, error)
	// Licenses with no active event overlapping the window.
	FreeIDs(ctx context.Context, window timerange.TimeRange) ([]uuid.UUID, error)
	// Create the missing pool licenses for the external account ids.
	EnsurePool(ctx context.Context, meetingUserIDs []string) error
	SetLastGuide(ctx context.Context, id uuid.UUID, guideID *uuid.UUID) error
}

type GormLicenseRepository struct {
	db *gorm.DB
}

func NewGormLicenseRepository(db *gorm.DB) *GormLicenseRepository {
	return &GormLicenseRepository{db: db}
}

func (r *GormLicenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.License, error) {
	var l model.License
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// FreeIDs returns licenses with no active event whose license window
// intersects the candidate window, ordered by creation so allocation is
// deterministic.
func (r *GormLicenseRepository) FreeIDs(ctx context.Context, window timerange.TimeRange) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.License{}).
		Where(`NOT EXISTS (
			SELECT 1 FROM events
			WHERE events.license_id = licenses.id
			  AND events.cancelled_date IS NULL
			  AND events.deleted_at IS NULL
			  AND events.license_start < ? AND events.license_end > ?
		)`, window.End, window.Start).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormLicenseRepository) EnsurePool(ctx context.Context, meetingUserIDs []string) error {
	for _, accountID := range meetingUserIDs {
		var l model.License
		tx := r.db.WithContext(ctx).First(&l, "meeting_user_id = ?", accountID)
		if tx.Error == nil {
			continue
		}
		if tx.Error != gorm.ErrRecordNotFound {
			return tx.Error
		}
		l = model.License{ID: uuid.New(), MeetingUserID: accountID}
		if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormLicenseRepository) SetLastGuide(ctx context.Context, id uuid.UUID, guideID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.License{}).
		Where("id = ?", id).
		Update("last_guide_id", guideID).Error
}
