package model

import (
	"time"

	"github.com/google/uuid"
)

// event_registrations — unique per (user, event). Hard-deleted when the
// user unregisters or the user account is removed.
type EventRegistration struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_user_event"`
	EventID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_user_event"`

	// Set when the user joins during the live window; repeated joins move
	// it forward.
	VisitedAt *time.Time `gorm:"type:timestamp with time zone"`

	// Set when the user leaves the post-event page.
	EndVisitAt *time.Time `gorm:"type:timestamp with time zone"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Navigation fields, optional.
	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Event   *Event   `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Comment *Comment `gorm:"foreignKey:EventRegistrationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (r *EventRegistration) Visited() bool {
	return r.VisitedAt != nil
}

// comments — post-visit feedback, one per registration.
type Comment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventRegistrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Comment string `gorm:"type:text;not null"`
	Rating  int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	EventRegistration *EventRegistration `gorm:"foreignKey:EventRegistrationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
