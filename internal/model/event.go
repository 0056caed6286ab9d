package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/timerange"
)

// events — one scheduled occurrence of a tour.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TourID uuid.UUID `gorm:"type:uuid;not null;index:idx_events_tour_date"`

	// Denormalized from the tour for fast overlap queries.
	GuideID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Bound license; nil means the event can not be joined.
	LicenseID *uuid.UUID `gorm:"type:uuid;index"`

	// Scheduled start; immutable once set.
	Date time.Time `gorm:"type:timestamp with time zone;not null;index:idx_events_tour_date"`

	// nil = active.
	CancelledDate *time.Time `gorm:"type:timestamp with time zone"`

	// License reservation window, derived from Date and the tour duration.
	// Cleared together with LicenseID on cancellation.
	LicenseStart *time.Time `gorm:"type:timestamp with time zone;index"`
	LicenseEnd   *time.Time `gorm:"type:timestamp with time zone"`

	// Meeting id/password as returned by the provisioning service.
	// Null when provisioning failed: the event exists but can not be joined.
	MeetingDetails datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Navigation fields, optional but handy for Preload.
	Tour          *Tour               `gorm:"foreignKey:TourID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	License       *License            `gorm:"foreignKey:LicenseID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Registrations []EventRegistration `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (e *Event) Cancelled() bool {
	return e.CancelledDate != nil
}

func (e *Event) HasMeetingDetails() bool {
	return len(e.MeetingDetails) > 0
}

// LiveWindow returns the window during which participants may join.
// Requires Tour to be preloaded.
func (e *Event) LiveWindow() timerange.TimeRange {
	return timerange.Live(e.Date, e.Tour.Duration)
}

// LicenseWindow returns the license reservation window derived from the
// date and tour duration. Requires Tour to be preloaded.
func (e *Event) LicenseWindow() timerange.TimeRange {
	return timerange.License(e.Date, e.Tour.Duration)
}

func (e *Event) Live(now time.Time) bool {
	return e.LiveWindow().Covers(now)
}

func (e *Event) Past(now time.Time) bool {
	return e.LiveWindow().End.Before(now)
}

func (e *Event) Future(now time.Time) bool {
	return e.LiveWindow().Start.After(now)
}

// CanBeStarted reports whether the stored license reservation covers now.
// A missing or degenerate window means the event can not be started.
func (e *Event) CanBeStarted(now time.Time) bool {
	if e.LicenseStart == nil || e.LicenseEnd == nil {
		return false
	}
	r, err := timerange.New(*e.LicenseStart, *e.LicenseEnd)
	if err != nil {
		return false
	}
	return r.Covers(now)
}
