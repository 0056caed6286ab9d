package model

import (
	"time"

	"github.com/google/uuid"
)

// licenses — shared pool of meeting-hosting credentials. A license is
// referenced, never owned, by at most one active event at a time; the
// non-overlap invariant is enforced at allocation.
type License struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Account id at the meeting provisioning service.
	MeetingUserID string `gorm:"type:varchar(255);not null;uniqueIndex"`

	// Guide the meeting password was last rotated for.
	LastGuideID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
