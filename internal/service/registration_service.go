package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/notify"
	"github.com/globetrotter/tour-platform/internal/pagination"
	"github.com/globetrotter/tour-platform/internal/repository"
)

// PaymentHook marks the points where an opaque payment capability can be
// inserted around a visit. The core never computes fees itself.
type PaymentHook interface {
	BeforeVisit(ctx context.Context, reg *model.EventRegistration) error
	AfterVisit(ctx context.Context, reg *model.EventRegistration) error
}

// RegistrationService manages user registrations to events and their
// post-visit feedback.
type RegistrationService struct {
	db        *gorm.DB
	lifecycle *EventService
	notifier  notify.Queue
	payments  PaymentHook // optional
}

func NewRegistrationService(db *gorm.DB, lifecycle *EventService, notifier notify.Queue, payments PaymentHook) *RegistrationService {
	return &RegistrationService{
		db:        db,
		lifecycle: lifecycle,
		notifier:  notifier,
		payments:  payments,
	}
}

// Register creates a registration for the user. Runs under the event's
// guide lock so a registration can not race the event's cancellation.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error) {
	var reg *model.EventRegistration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := repository.NewGormEventRepository(tx)
		event, err := events.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ValidationErrors{"event": "must exist"}
			}
			return fmt.Errorf("load event: %w", err)
		}

		// Unpublished tours and guides are invisible to regular users;
		// only the hosting guide or an admin may register there.
		if !event.Tour.Visible() && event.Tour.Guide.UserID != userID {
			user, err := repository.NewGormUserRepository(tx).GetByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			if !user.Admin {
				return ErrNotAuthorized
			}
		}

		guides := repository.NewGormGuideRepository(tx)
		if _, err := guides.LockByID(ctx, event.GuideID); err != nil {
			return fmt.Errorf("lock guide: %w", err)
		}

		if event.Cancelled() {
			return ErrEventCancelled
		}

		reg = &model.EventRegistration{ID: uuid.New(), UserID: userID, EventID: eventID}
		regs := repository.NewGormRegistrationRepository(tx)
		if err := regs.Create(ctx, reg); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Enqueue(notify.Notification{
			Template: notify.TemplateRegistrationConfirmed,
			Context: map[string]any{
				"registration_id": reg.ID.String(),
				"user_id":         userID.String(),
				"event_id":        eventID.String(),
			},
		})
	}
	return reg, nil
}

// CancelRegistration removes the user's registration. Allowed only while
// the event date is still in the future. The cancellation notification is
// sent synchronously before the delete: its content needs event and tour
// data that references the row about to disappear.
func (s *RegistrationService) CancelRegistration(ctx context.Context, userID, registrationID uuid.UUID) error {
	regs := repository.NewGormRegistrationRepository(s.db)
	reg, err := regs.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if reg.UserID != userID {
		return ErrNotAuthorized
	}
	if !reg.Event.Date.After(time.Now()) {
		return ErrRegistrationPast
	}

	if s.notifier != nil {
		n := notify.Notification{
			Template: notify.TemplateRegistrationCancelled,
			Context: map[string]any{
				"user_id":    userID.String(),
				"event_id":   reg.EventID.String(),
				"tour_title": reg.Event.Tour.Title,
				"event_date": reg.Event.Date,
			},
		}
		if err := s.notifier.Now(ctx, n); err != nil {
			// Best-effort: the unregistration must not fail on a dead
			// notification channel.
			log.Printf("registration %s: cancellation notice failed: %v", registrationID, err)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewGormRegistrationRepository(tx).DeleteWithComment(ctx, registrationID)
	})
}

// Visit finds or creates the registration and marks it visited. The
// pre-visit payment hook runs first when configured.
func (s *RegistrationService) Visit(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error) {
	if s.payments != nil {
		reg, err := s.findRegistration(ctx, userID, eventID)
		if err == nil {
			if err := s.payments.BeforeVisit(ctx, reg); err != nil {
				return nil, err
			}
		}
	}
	return s.lifecycle.MarkVisited(ctx, userID, eventID)
}

// CloseVisit stamps the end of the user's visit; the post-visit payment
// step (tips) hooks in here.
func (s *RegistrationService) CloseVisit(ctx context.Context, userID, registrationID uuid.UUID) error {
	regs := repository.NewGormRegistrationRepository(s.db)
	reg, err := regs.GetByID(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if reg.UserID != userID {
		return ErrNotAuthorized
	}

	now := time.Now()
	if err := regs.SetEndVisit(ctx, registrationID, now); err != nil {
		return fmt.Errorf("close visit: %w", err)
	}
	reg.EndVisitAt = &now

	if s.payments != nil {
		if err := s.payments.AfterVisit(ctx, reg); err != nil {
			return err
		}
	}
	return nil
}

// ListForUser splits the user's registrations into upcoming and previous
// pages, both ordered by event date.
func (s *RegistrationService) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (upcoming, previous pagination.Page[model.EventRegistration], err error) {
	regs := repository.NewGormRegistrationRepository(s.db)
	all, err := regs.ListByUser(ctx, userID)
	if err != nil {
		return upcoming, previous, err
	}

	now := time.Now()
	var up, prev []model.EventRegistration
	for _, reg := range all {
		if reg.Event != nil && reg.Event.Date.Before(now) {
			prev = append(prev, reg)
		} else {
			up = append(up, reg)
		}
	}
	// Previous registrations read most recent first.
	for i, j := 0, len(prev)-1; i < j; i, j = i+1, j-1 {
		prev[i], prev[j] = prev[j], prev[i]
	}

	return pagination.Paginate(up, page, pageSize), pagination.Paginate(prev, page, pageSize), nil
}

func (s *RegistrationService) findRegistration(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error) {
	regs := repository.NewGormRegistrationRepository(s.db)
	return regs.FindByUserAndEvent(ctx, userID, eventID)
}
