package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guide — a user authorized to host tours. One per user.
type Guide struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Preferred meeting license; best-effort, allocation may substitute
	// another free license.
	LicenseID *uuid.UUID `gorm:"type:uuid;index"`

	Published bool `gorm:"not null;default:false;index"`

	Description      string `gorm:"type:text"`
	ShortDescription string `gorm:"type:text"`
	Location         string `gorm:"type:varchar(255)"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Navigation fields, optional but handy for Preload.
	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	License *License `gorm:"foreignKey:LicenseID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Tours   []Tour   `gorm:"foreignKey:GuideID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
