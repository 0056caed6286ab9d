package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/notify"
	"github.com/globetrotter/tour-platform/internal/repository"
)

// SoftDeleteService propagates deactivation down the ownership tree:
// user → guide → tour → event. Events are cancelled, never hard-deleted;
// only the deleted user's own registrations are destroyed. The whole
// cascade runs in one transaction — partial completion is not an outcome.
type SoftDeleteService struct {
	db        *gorm.DB
	notifier  notify.Queue
	refresher Kicker
}

func NewSoftDeleteService(db *gorm.DB, notifier notify.Queue, refresher Kicker) *SoftDeleteService {
	return &SoftDeleteService{db: db, notifier: notifier, refresher: refresher}
}

// authorize rejects actors that neither own the entity nor are admins,
// before anything is mutated.
func (s *SoftDeleteService) authorize(ctx context.Context, actorID, ownerUserID uuid.UUID) error {
	if actorID == ownerUserID {
		return nil
	}
	actor, err := repository.NewGormUserRepository(s.db).GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("load actor: %w", err)
	}
	if !actor.Admin {
		return ErrNotAuthorized
	}
	return nil
}

// DeleteUser removes the account: cascades into the guide profile if any,
// hard-deletes the user's own registrations (with their comments) and
// frees the unique email for re-registration. Only the user themselves or
// an admin may do this.
func (s *SoftDeleteService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.authorize(ctx, actorID, userID); err != nil {
		return err
	}

	var pending []notify.Notification
	cancelledAny := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		guide, err := repository.NewGormGuideRepository(tx).GetByUserID(ctx, userID)
		switch {
		case err == nil:
			if err := s.deleteGuide(ctx, tx, guide, &pending, &cancelledAny); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		// The user's own registrations go away for good, comments first.
		regIDs := tx.Model(&model.EventRegistration{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("event_registration_id IN (?)", regIDs).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.EventRegistration{}).Error; err != nil {
			return err
		}

		// Mangle the email so the unique index lets the address register
		// again.
		now := time.Now()
		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"email":      fmt.Sprintf("deleted.%d.%s", now.Unix(), user.Email),
				"deleted_at": now,
			}).Error
	})
	if err != nil {
		return err
	}

	s.afterCascade(pending, cancelledAny)
	return nil
}

// DeleteGuide deactivates the guide profile and everything it hosts.
// Allowed for the guide's own user or an admin.
func (s *SoftDeleteService) DeleteGuide(ctx context.Context, actorID, guideID uuid.UUID) error {
	guide, err := repository.NewGormGuideRepository(s.db).GetByID(ctx, guideID)
	if err != nil {
		return fmt.Errorf("load guide: %w", err)
	}
	if err := s.authorize(ctx, actorID, guide.UserID); err != nil {
		return err
	}

	var pending []notify.Notification
	cancelledAny := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deleteGuide(ctx, tx, guide, &pending, &cancelledAny)
	})
	if err != nil {
		return err
	}

	s.afterCascade(pending, cancelledAny)
	return nil
}

// DeleteTour deactivates the tour and cancels its events. Allowed for the
// owning guide's user or an admin.
func (s *SoftDeleteService) DeleteTour(ctx context.Context, actorID, tourID uuid.UUID) error {
	var tour model.Tour
	if err := s.db.WithContext(ctx).First(&tour, "id = ?", tourID).Error; err != nil {
		return fmt.Errorf("load tour: %w", err)
	}
	guide, err := repository.NewGormGuideRepository(s.db).GetByID(ctx, tour.GuideID)
	if err != nil {
		return fmt.Errorf("load guide: %w", err)
	}
	if err := s.authorize(ctx, actorID, guide.UserID); err != nil {
		return err
	}

	var pending []notify.Notification
	cancelledAny := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deleteTour(ctx, tx, &tour, &pending, &cancelledAny)
	})
	if err != nil {
		return err
	}

	s.afterCascade(pending, cancelledAny)
	return nil
}

// DeleteEvent removes a single event: cancellation semantics plus the
// soft-delete mark. Allowed for the owning guide's user or an admin.
func (s *SoftDeleteService) DeleteEvent(ctx context.Context, actorID, eventID uuid.UUID) error {
	event, err := repository.NewGormEventRepository(s.db).GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if err := s.authorize(ctx, actorID, event.Tour.Guide.UserID); err != nil {
		return err
	}

	var pending []notify.Notification
	cancelledAny := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deleteEvent(ctx, tx, event, &pending, &cancelledAny)
	})
	if err != nil {
		return err
	}

	s.afterCascade(pending, cancelledAny)
	return nil
}

func (s *SoftDeleteService) deleteGuide(ctx context.Context, tx *gorm.DB, guide *model.Guide, pending *[]notify.Notification, cancelledAny *bool) error {
	var tours []model.Tour
	if err := tx.Where("guide_id = ?", guide.ID).Find(&tours).Error; err != nil {
		return err
	}
	for i := range tours {
		if err := s.deleteTour(ctx, tx, &tours[i], pending, cancelledAny); err != nil {
			return err
		}
	}

	return tx.Model(&model.Guide{}).
		Where("id = ?", guide.ID).
		Updates(map[string]any{"published": false, "deleted_at": time.Now()}).Error
}

func (s *SoftDeleteService) deleteTour(ctx context.Context, tx *gorm.DB, tour *model.Tour, pending *[]notify.Notification, cancelledAny *bool) error {
	var events []model.Event
	if err := tx.Where("tour_id = ?", tour.ID).Find(&events).Error; err != nil {
		return err
	}
	for i := range events {
		if err := s.deleteEvent(ctx, tx, &events[i], pending, cancelledAny); err != nil {
			return err
		}
	}

	return tx.Model(&model.Tour{}).
		Where("id = ?", tour.ID).
		Updates(map[string]any{"published": false, "deleted_at": time.Now()}).Error
}

func (s *SoftDeleteService) deleteEvent(ctx context.Context, tx *gorm.DB, event *model.Event, pending *[]notify.Notification, cancelledAny *bool) error {
	now := time.Now()
	updates := map[string]any{"deleted_at": now}

	if !event.Cancelled() {
		updates["cancelled_date"] = now
		updates["license_id"] = nil
		updates["license_start"] = nil
		updates["license_end"] = nil
		*cancelledAny = true

		// Registered users of a cancelled event get notified once the
		// cascade commits.
		var regs []model.EventRegistration
		if err := tx.Where("event_id = ?", event.ID).Find(&regs).Error; err != nil {
			return err
		}
		for _, reg := range regs {
			*pending = append(*pending, notify.Notification{
				Template: notify.TemplateEventCancellation,
				Context: map[string]any{
					"event_id": event.ID.String(),
					"user_id":  reg.UserID.String(),
				},
			})
		}
	}

	return tx.Model(&model.Event{}).Where("id = ?", event.ID).Updates(updates).Error
}

func (s *SoftDeleteService) afterCascade(pending []notify.Notification, cancelledAny bool) {
	if s.notifier != nil {
		for _, n := range pending {
			s.notifier.Enqueue(n)
		}
	}
	if cancelledAny && s.refresher != nil {
		s.refresher.Kick()
	}
}
