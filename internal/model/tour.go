package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Durations a tour may be created with.
var PossibleDurations = []time.Duration{
	30 * time.Minute,
	45 * time.Minute,
	time.Hour,
	75 * time.Minute,
	90 * time.Minute,
}

// tours
type Tour struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	GuideID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title            string `gorm:"type:varchar(255);not null"`
	Subtitle         string `gorm:"type:varchar(255)"`
	Description      string `gorm:"type:text"`
	ShortDescription string `gorm:"type:text"`

	Language string `gorm:"type:varchar(8);not null;default:'en'"`

	// Fixed event length, stored as nanoseconds.
	Duration time.Duration `gorm:"type:bigint;not null"`

	Published bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Guide  *Guide  `gorm:"foreignKey:GuideID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Events []Event `gorm:"foreignKey:TourID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// Visible reports whether the tour shows up for regular users: both the
// tour and its guide must be published. Requires Guide to be preloaded.
func (t *Tour) Visible() bool {
	return t.Published && t.Guide != nil && t.Guide.Published
}
