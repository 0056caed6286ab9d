package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
)

type RegistrationRepository interface {
	// Create a registration. A duplicate (user, event) pair returns
	// gorm.ErrDuplicatedKey.
	Create(ctx context.Context, reg *model.EventRegistration) error
	// Registration by id together with its event and tour.
	GetByID(ctx context.Context, id uuid.UUID) (*model.EventRegistration, error)
	FindByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error)
	// Set or update the visit timestamp.
	SetVisited(ctx context.Context, id uuid.UUID, visitedAt time.Time) error
	SetEndVisit(ctx context.Context, id uuid.UUID, endVisitAt time.Time) error
	// Delete the registration together with its dependent comment.
	DeleteWithComment(ctx context.Context, id uuid.UUID) error
	// The user's registrations, ordered by event date.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.EventRegistration, error)
}

type GormRegistrationRepository struct {
	db *gorm.DB
}

func NewGormRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

func (r *GormRegistrationRepository) Create(ctx context.Context, reg *model.EventRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *GormRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Tour").
		Preload("User").
		Preload("Comment").
		First(&reg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *GormRegistrationRepository) FindByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.db.WithContext(ctx).
		First(&reg, "user_id = ? AND event_id = ?", userID, eventID).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *GormRegistrationRepository) SetVisited(ctx context.Context, id uuid.UUID, visitedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Where("id = ?", id).
		Update("visited_at", visitedAt).Error
}

func (r *GormRegistrationRepository) SetEndVisit(ctx context.Context, id uuid.UUID, endVisitAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Where("id = ?", id).
		Update("end_visit_at", endVisitAt).Error
}

func (r *GormRegistrationRepository) DeleteWithComment(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("event_registration_id = ?", id).
		Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&model.EventRegistration{}, "id = ?", id).Error
}

func (r *GormRegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.EventRegistration, error) {
	var regs []model.EventRegistration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Tour").
		Preload("Comment").
		Joins("JOIN events ON events.id = event_registrations.event_id").
		Where("event_registrations.user_id = ?", userID).
		Order("events.date ASC").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}
