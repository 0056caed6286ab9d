package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/timerange"
)

type EventRepository interface {
	// Create a new event.
	Create(ctx context.Context, event *model.Event) error
	// Event by id with its tour and guide.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Event by id together with its registrations and their users.
	GetWithRegistrations(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Whether the guide has an active event with an overlapping window.
	GuideHasOverlap(ctx context.Context, guideID uuid.UUID, window timerange.TimeRange, excludeEventID uuid.UUID) (bool, error)
	// Whether the license has an active event with an overlapping window.
	LicenseHasOverlap(ctx context.Context, licenseID uuid.UUID, window timerange.TimeRange, excludeEventID uuid.UUID) (bool, error)
	// Cancel the event: set cancelled_date and release the license.
	MarkCancelled(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error
	// Store the meeting details (best-effort, after creation).
	SetMeetingDetails(ctx context.Context, id uuid.UUID, details []byte) error
	// The tour's active future events.
	ListActiveFutureByTour(ctx context.Context, tourID uuid.UUID, now time.Time) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := r.db.WithContext(ctx).
		Preload("Tour").
		Preload("Tour.Guide").
		Preload("License").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormEventRepository) GetWithRegistrations(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := r.db.WithContext(ctx).
		Preload("Tour").
		Preload("Tour.Guide").
		Preload("Tour.Guide.User").
		Preload("Registrations").
		Preload("Registrations.User").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Half-open interval overlap: existing.start < window.end && window.start < existing.end.
func (r *GormEventRepository) overlapQuery(ctx context.Context, window timerange.TimeRange, excludeEventID uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("cancelled_date IS NULL").
		Where("license_start < ? AND license_end > ?", window.End, window.Start)
	if excludeEventID != uuid.Nil {
		q = q.Where("id <> ?", excludeEventID)
	}
	return q
}

func (r *GormEventRepository) GuideHasOverlap(
	ctx context.Context,
	guideID uuid.UUID,
	window timerange.TimeRange,
	excludeEventID uuid.UUID,
) (bool, error) {
	var count int64
	err := r.overlapQuery(ctx, window, excludeEventID).
		Where("guide_id = ?", guideID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormEventRepository) LicenseHasOverlap(
	ctx context.Context,
	licenseID uuid.UUID,
	window timerange.TimeRange,
	excludeEventID uuid.UUID,
) (bool, error) {
	var count int64
	err := r.overlapQuery(ctx, window, excludeEventID).
		Where("license_id = ?", licenseID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormEventRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"cancelled_date": cancelledAt,
			"license_id":     nil,
			"license_start":  nil,
			"license_end":    nil,
		}).Error
}

func (r *GormEventRepository) SetMeetingDetails(ctx context.Context, id uuid.UUID, details []byte) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", id).
		Update("meeting_details", details).Error
}

func (r *GormEventRepository) ListActiveFutureByTour(ctx context.Context, tourID uuid.UUID, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("tour_id = ?", tourID).
		Where("cancelled_date IS NULL").
		Where("date > ?", now).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
