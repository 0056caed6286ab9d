package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/meeting"
	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/notify"
	"github.com/globetrotter/tour-platform/internal/repository"
	"github.com/globetrotter/tour-platform/internal/timerange"
)

// Kicker requests an out-of-band refresh of the next-event projection.
type Kicker interface {
	Kick()
}

// EventService owns the event lifecycle: scheduled → live → past, with
// cancellation reachable until the live window ends.
type EventService struct {
	db        *gorm.DB
	meetings  meeting.Provisioner
	notifier  notify.Queue
	refresher Kicker
}

func NewEventService(db *gorm.DB, meetings meeting.Provisioner, notifier notify.Queue, refresher Kicker) *EventService {
	return &EventService{
		db:        db,
		meetings:  meetings,
		notifier:  notifier,
		refresher: refresher,
	}
}

// Create schedules a new event for the tour. The allocation, the overlap
// checks and the write run in one transaction under the guide's row lock:
// of two concurrent creations with overlapping windows for the same guide
// or license, at most one succeeds.
func (s *EventService) Create(ctx context.Context, actorID, tourID uuid.UUID, date time.Time) (*model.Event, error) {
	tours := repository.NewGormTourRepository(s.db)
	tour, err := tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ValidationErrors{"tour": "must exist"}
		}
		return nil, fmt.Errorf("load tour: %w", err)
	}

	if err := s.authorizeGuideAction(ctx, actorID, tour.Guide.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	verrs := ValidationErrors{}
	if date.IsZero() {
		verrs.Add("date", "is required")
	} else if !date.After(now) {
		verrs.Add("date", "must be in the future")
	}
	if !tour.Published {
		verrs.Add("tour", "must be published")
	}
	if tour.Guide == nil || !tour.Guide.Published {
		verrs.Add("guide", "must be published")
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	window := timerange.License(date, tour.Duration)

	var event *model.Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guides := repository.NewGormGuideRepository(tx)
		guide, err := guides.LockByID(ctx, tour.GuideID)
		if err != nil {
			return fmt.Errorf("lock guide: %w", err)
		}

		events := repository.NewGormEventRepository(tx)
		booked, err := events.GuideHasOverlap(ctx, guide.ID, window, uuid.Nil)
		if err != nil {
			return err
		}
		if booked {
			return ValidationErrors{"date": "is already booked for this guide"}
		}

		licenseID, err := allocateLicense(ctx, tx, guide, window)
		if err != nil {
			return err
		}
		if licenseID == uuid.Nil {
			return ValidationErrors{"license": "can not be booked at the specified date"}
		}

		event = &model.Event{
			ID:           uuid.New(),
			TourID:       tour.ID,
			GuideID:      guide.ID,
			LicenseID:    &licenseID,
			Date:         date,
			LicenseStart: &window.Start,
			LicenseEnd:   &window.End,
		}
		return events.Create(ctx, event)
	})
	if err != nil {
		// A concurrent writer that slipped past the lock loses on the
		// storage-level exclusion constraint; report it as a booking
		// conflict, not a system fault.
		if isWindowConflict(err) {
			return nil, ValidationErrors{"date": "is already booked"}
		}
		return nil, err
	}
	event.Tour = tour

	s.provisionMeeting(ctx, event, tour)

	s.enqueue(notify.Notification{
		Template: notify.TemplateEventScheduled,
		Context:  map[string]any{"event_id": event.ID.String(), "tour_id": tour.ID.String()},
	})
	s.enqueue(notify.Notification{
		Template: notify.TemplateEventAboutToStart,
		Context:  map[string]any{"event_id": event.ID.String(), "guide_id": event.GuideID.String()},
		SendAt:   date.Add(-timerange.BookBeforeEvent),
	})
	s.kick()

	return event, nil
}

// Cancel marks the event cancelled and releases its license. Rejected for
// past and already-cancelled events; cancelling twice is an error, not a
// no-op. Notifications and meeting teardown are best-effort and never roll
// back the cancellation.
func (s *EventService) Cancel(ctx context.Context, actorID, eventID uuid.UUID) error {
	events := repository.NewGormEventRepository(s.db)
	event, err := events.GetWithRegistrations(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	if err := s.authorizeGuideAction(ctx, actorID, event.Tour.Guide.UserID); err != nil {
		return err
	}

	// State check and write run under the guide lock, so a concurrent
	// cancel (or a registration taking the same lock) can not interleave:
	// of two racing cancels exactly one succeeds.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guides := repository.NewGormGuideRepository(tx)
		if _, err := guides.LockByID(ctx, event.GuideID); err != nil {
			return fmt.Errorf("lock guide: %w", err)
		}

		txEvents := repository.NewGormEventRepository(tx)
		fresh, err := txEvents.GetByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}

		now := time.Now()
		if fresh.Cancelled() {
			return ErrEventCancelled
		}
		if fresh.Past(now) {
			return ErrEventFinished
		}

		if err := txEvents.MarkCancelled(ctx, eventID, now); err != nil {
			return fmt.Errorf("cancel event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.teardownMeeting(ctx, event)

	for _, reg := range event.Registrations {
		s.enqueue(notify.Notification{
			Template: notify.TemplateEventCancellation,
			Context: map[string]any{
				"event_id": event.ID.String(),
				"user_id":  reg.UserID.String(),
			},
		})
	}
	s.enqueue(notify.Notification{
		Template: notify.TemplateEventUnscheduled,
		Context:  map[string]any{"event_id": event.ID.String(), "guide_id": event.GuideID.String()},
	})
	s.kick()

	return nil
}

// MarkVisited records that the user joined the event. Allowed only while
// the event is live; repeated calls move the timestamp forward.
func (s *EventService) MarkVisited(ctx context.Context, userID, eventID uuid.UUID) (*model.EventRegistration, error) {
	events := repository.NewGormEventRepository(s.db)
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}

	now := time.Now()
	if event.Cancelled() {
		return nil, ErrEventCancelled
	}
	if event.Past(now) {
		return nil, ErrEventFinished
	}
	if event.Future(now) {
		return nil, ErrEventNotStarted
	}

	regs := repository.NewGormRegistrationRepository(s.db)
	reg, err := regs.FindByUserAndEvent(ctx, userID, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reg = &model.EventRegistration{ID: uuid.New(), UserID: userID, EventID: eventID}
		if err := regs.Create(ctx, reg); err != nil {
			return nil, fmt.Errorf("create registration: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	if err := regs.SetVisited(ctx, reg.ID, now); err != nil {
		return nil, fmt.Errorf("mark visited: %w", err)
	}
	reg.VisitedAt = &now
	return reg, nil
}

// UpcomingForTour lists the tour's active future events, soonest first.
func (s *EventService) UpcomingForTour(ctx context.Context, tourID uuid.UUID) ([]model.Event, error) {
	events := repository.NewGormEventRepository(s.db)
	return events.ListActiveFutureByTour(ctx, tourID, time.Now())
}

// JoinDetails is what a participant needs to enter the meeting room.
type JoinDetails struct {
	MeetingID    int64
	Password     string
	JoinURL      string
	Registration *model.EventRegistration
}

// Join validates that the event can be entered right now, marks the
// user's registration visited and returns the meeting details.
func (s *EventService) Join(ctx context.Context, userID, eventID uuid.UUID) (*JoinDetails, error) {
	events := repository.NewGormEventRepository(s.db)
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}

	if event.Cancelled() {
		return nil, ErrEventCancelled
	}
	now := time.Now()
	if event.Past(now) {
		return nil, ErrEventFinished
	}
	if event.Future(now) {
		return nil, ErrEventNotStarted
	}
	if !event.HasMeetingDetails() {
		// Provisioning failed at creation; the event exists but can not
		// be joined.
		return nil, ErrMissingMeetingDetails
	}

	users := repository.NewGormUserRepository(s.db)
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !event.Tour.Visible() && !user.Admin && event.Tour.Guide.UserID != userID {
		return nil, ErrNotAuthorized
	}

	reg, err := s.MarkVisited(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	var details meeting.Details
	if err := json.Unmarshal(event.MeetingDetails, &details); err != nil {
		return nil, fmt.Errorf("decode meeting details: %w", err)
	}

	return &JoinDetails{
		MeetingID:    details.ID,
		Password:     details.Password,
		JoinURL:      details.JoinURL,
		Registration: reg,
	}, nil
}

func (s *EventService) authorizeGuideAction(ctx context.Context, actorID, guideUserID uuid.UUID) error {
	if actorID == guideUserID {
		return nil
	}
	users := repository.NewGormUserRepository(s.db)
	actor, err := users.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("load actor: %w", err)
	}
	if !actor.Admin {
		return ErrNotAuthorized
	}
	return nil
}

// provisionMeeting books a meeting room for the event. Best-effort: on
// failure the event stays without meeting details and joining reports
// ErrMissingMeetingDetails.
func (s *EventService) provisionMeeting(ctx context.Context, event *model.Event, tour *model.Tour) {
	if s.meetings == nil || event.LicenseID == nil {
		return
	}

	licenses := repository.NewGormLicenseRepository(s.db)
	license, err := licenses.GetByID(ctx, *event.LicenseID)
	if err != nil {
		log.Printf("event %s: load license: %v", event.ID, err)
		return
	}

	password := s.meetings.Password(event.GuideID)
	details, err := s.meetings.CreateMeeting(ctx, license.MeetingUserID, event.Date, tour.Title, password)
	if err != nil {
		log.Printf("event %s: meeting provisioning failed, event has no meeting details: %v", event.ID, err)
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		log.Printf("event %s: encode meeting details: %v", event.ID, err)
		return
	}

	events := repository.NewGormEventRepository(s.db)
	if err := events.SetMeetingDetails(ctx, event.ID, raw); err != nil {
		log.Printf("event %s: store meeting details: %v", event.ID, err)
		return
	}
	event.MeetingDetails = raw

	if err := licenses.SetLastGuide(ctx, license.ID, &event.GuideID); err != nil {
		log.Printf("license %s: record last guide: %v", license.ID, err)
	}
}

func (s *EventService) teardownMeeting(ctx context.Context, event *model.Event) {
	if s.meetings == nil || !event.HasMeetingDetails() {
		return
	}
	var details meeting.Details
	if err := json.Unmarshal(event.MeetingDetails, &details); err != nil {
		log.Printf("event %s: decode meeting details: %v", event.ID, err)
		return
	}
	if err := s.meetings.DeleteMeeting(ctx, details.ID); err != nil {
		log.Printf("event %s: meeting teardown failed: %v", event.ID, err)
	}
}

func (s *EventService) enqueue(n notify.Notification) {
	if s.notifier != nil {
		s.notifier.Enqueue(n)
	}
}

func (s *EventService) kick() {
	if s.refresher != nil {
		s.refresher.Kick()
	}
}

// Postgres enforces the non-overlap invariants with named exclusion
// constraints (see db.ApplyPostgresConstraints).
func isWindowConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "events_license_window_excl") ||
		strings.Contains(msg, "events_guide_window_excl")
}
