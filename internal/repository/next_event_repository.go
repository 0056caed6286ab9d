package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
)

type NextEventRepository interface {
	// Recompute the whole projection: the earliest active future event
	// per tour. Idempotent, runs in one transaction.
	Rebuild(ctx context.Context, now time.Time) error
	ForTour(ctx context.Context, tourID uuid.UUID) (*model.NextEvent, error)
	ForTours(ctx context.Context, tourIDs []uuid.UUID) ([]model.NextEvent, error)
}

type GormNextEventRepository struct {
	db *gorm.DB
}

func NewGormNextEventRepository(db *gorm.DB) *GormNextEventRepository {
	return &GormNextEventRepository{db: db}
}

func (r *GormNextEventRepository) Rebuild(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		type row struct {
			TourID    uuid.UUID
			EventID   uuid.UUID
			GuideID   uuid.UUID
			LicenseID *uuid.UUID
			Date      time.Time
		}

		// Earliest active future event per tour; id breaks date ties.
		var rows []row
		err := tx.Raw(`
			SELECT e.tour_id AS tour_id,
			       e.id AS event_id,
			       e.guide_id AS guide_id,
			       e.license_id AS license_id,
			       e.date AS date
			FROM events e
			WHERE e.cancelled_date IS NULL
			  AND e.deleted_at IS NULL
			  AND e.date > ?
			  AND NOT EXISTS (
				SELECT 1 FROM events e2
				WHERE e2.tour_id = e.tour_id
				  AND e2.cancelled_date IS NULL
				  AND e2.deleted_at IS NULL
				  AND e2.date > ?
				  AND (e2.date < e.date OR (e2.date = e.date AND e2.id < e.id))
			  )`, now, now).Scan(&rows).Error
		if err != nil {
			return err
		}

		if err := tx.Where("1 = 1").Delete(&model.NextEvent{}).Error; err != nil {
			return err
		}

		for _, row := range rows {
			ne := model.NextEvent{
				TourID:      row.TourID,
				EventID:     row.EventID,
				GuideID:     row.GuideID,
				LicenseID:   row.LicenseID,
				Date:        row.Date,
				RefreshedAt: now,
			}
			if err := tx.Create(&ne).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormNextEventRepository) ForTour(ctx context.Context, tourID uuid.UUID) (*model.NextEvent, error) {
	var ne model.NextEvent
	if err := r.db.WithContext(ctx).First(&ne, "tour_id = ?", tourID).Error; err != nil {
		return nil, err
	}
	return &ne, nil
}

func (r *GormNextEventRepository) ForTours(ctx context.Context, tourIDs []uuid.UUID) ([]model.NextEvent, error) {
	if len(tourIDs) == 0 {
		return []model.NextEvent{}, nil
	}
	var nes []model.NextEvent
	err := r.db.WithContext(ctx).
		Where("tour_id IN ?", tourIDs).
		Order("date ASC").
		Find(&nes).Error
	if err != nil {
		return nil, err
	}
	return nes, nil
}
