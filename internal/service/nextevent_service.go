package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/repository"
)

// NextEventService maintains the per-tour "next upcoming event"
// projection. Reads are cheap and may be stale up to one refresh
// interval; Rebuild recomputes the whole projection from the events
// table.
type NextEventService struct {
	db *gorm.DB
}

func NewNextEventService(db *gorm.DB) *NextEventService {
	return &NextEventService{db: db}
}

// Rebuild recomputes the projection. Idempotent full recomputation, so
// overlapping or skipped runs are harmless.
func (s *NextEventService) Rebuild(ctx context.Context) error {
	repo := repository.NewGormNextEventRepository(s.db)
	return repo.Rebuild(ctx, time.Now())
}

// ForTour returns the tour's next upcoming event, or nil when the tour
// has none (or the projection has not caught up yet).
func (s *NextEventService) ForTour(ctx context.Context, tourID uuid.UUID) (*model.NextEvent, error) {
	repo := repository.NewGormNextEventRepository(s.db)
	ne, err := repo.ForTour(ctx, tourID)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ne, nil
}

// ForTours returns the projection rows for the given tours, soonest
// first. Used by tour listing and search.
func (s *NextEventService) ForTours(ctx context.Context, tourIDs []uuid.UUID) ([]model.NextEvent, error) {
	repo := repository.NewGormNextEventRepository(s.db)
	return repo.ForTours(ctx, tourIDs)
}
