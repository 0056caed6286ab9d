package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
)

// AddComment records post-visit feedback. Only the registrant may comment,
// only after the visit happened and the event is over, and only once per
// registration.
func (s *RegistrationService) AddComment(ctx context.Context, userID, registrationID uuid.UUID, text string, rating int) (*model.Comment, error) {
	reg, err := s.loadRegistrationForComment(ctx, userID, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Comment != nil {
		return nil, ValidationErrors{"comment": "already exists for this registration"}
	}

	verrs := ValidationErrors{}
	if text == "" {
		verrs.Add("comment", "is required")
	}
	if rating < 1 || rating > 5 {
		verrs.Add("rating", "must be between 1 and 5")
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	comment := &model.Comment{
		ID:                  uuid.New(),
		EventRegistrationID: registrationID,
		Comment:             text,
		Rating:              rating,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ValidationErrors{"comment": "already exists for this registration"}
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// UpdateComment replaces the text and rating of the user's own comment.
func (s *RegistrationService) UpdateComment(ctx context.Context, userID, registrationID uuid.UUID, text string, rating int) error {
	reg, err := s.loadRegistrationForComment(ctx, userID, registrationID)
	if err != nil {
		return err
	}
	if reg.Comment == nil {
		return gorm.ErrRecordNotFound
	}

	return s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("id = ?", reg.Comment.ID).
		Updates(map[string]any{"comment": text, "rating": rating}).Error
}

// DeleteComment removes the user's own comment.
func (s *RegistrationService) DeleteComment(ctx context.Context, userID, registrationID uuid.UUID) error {
	regs := s.db.WithContext(ctx)
	var reg model.EventRegistration
	if err := regs.Preload("Comment").First(&reg, "id = ?", registrationID).Error; err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if reg.UserID != userID {
		return ErrNotAuthorized
	}
	if reg.Comment == nil {
		return gorm.ErrRecordNotFound
	}
	return s.db.WithContext(ctx).Delete(&model.Comment{}, "id = ?", reg.Comment.ID).Error
}

func (s *RegistrationService) loadRegistrationForComment(ctx context.Context, userID, registrationID uuid.UUID) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Comment").
		First(&reg, "id = ?", registrationID).Error
	if err != nil {
		return nil, fmt.Errorf("load registration: %w", err)
	}

	if reg.UserID != userID {
		return nil, ErrNotAuthorized
	}
	if !reg.Visited() {
		return nil, ErrNotVisited
	}
	// Comments for future events are forbidden.
	if reg.Event.Date.After(time.Now()) {
		return nil, ErrEventNotStarted
	}
	return &reg, nil
}
