package model

import (
	"time"

	"github.com/google/uuid"
)

// next_events — read-optimized projection: the earliest active future event
// per tour. Rebuilt periodically from the events table; consumers tolerate
// staleness up to one refresh interval.
type NextEvent struct {
	TourID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventID   uuid.UUID  `gorm:"type:uuid;not null"`
	GuideID   uuid.UUID  `gorm:"type:uuid;not null"`
	LicenseID *uuid.UUID `gorm:"type:uuid"`

	Date time.Time `gorm:"type:timestamp with time zone;not null;index"`

	RefreshedAt time.Time `gorm:"not null"`
}
