package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Supported interface/tour languages.
var LanguageNames = map[string]string{
	"en": "English",
	"fr": "Français",
}

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Firstname string `gorm:"type:varchar(255)"`
	Lastname  string `gorm:"type:varchar(255)"`

	Language string `gorm:"type:varchar(8);not null;default:'en'"`
	// Languages the user wants tours in; JSON array of language codes.
	TourLanguage datatypes.JSON `gorm:"type:jsonb"`

	Admin bool `gorm:"not null;default:false"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Navigation fields, optional.
	Guide         *Guide              `gorm:"foreignKey:UserID"`
	Registrations []EventRegistration `gorm:"foreignKey:UserID"`
}

// Name returns the best available display name.
func (u *User) Name() string {
	if u.Firstname != "" {
		return u.Firstname
	}
	if u.Lastname != "" {
		return u.Lastname
	}
	return u.Email
}

func (u *User) LanguageName() string {
	return LanguageNames[u.Language]
}
