package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/repository"
	"github.com/globetrotter/tour-platform/internal/timerange"
)

// allocateLicense picks a license for the candidate window: the guide's
// preferred license when still free, otherwise the first free one, which
// then becomes the guide's new preference. The substitution is silent —
// accepted trade-off, the guide is not told their usual license was taken.
//
// Returns uuid.Nil when no license is free for the window; the caller must
// surface that as a validation failure. Must run inside the transaction
// holding the guide lock, so concurrent allocations for overlapping
// windows serialize.
func allocateLicense(ctx context.Context, tx *gorm.DB, guide *model.Guide, window timerange.TimeRange) (uuid.UUID, error) {
	licenses := repository.NewGormLicenseRepository(tx)

	freeIDs, err := licenses.FreeIDs(ctx, window)
	if err != nil {
		return uuid.Nil, err
	}
	if len(freeIDs) == 0 {
		return uuid.Nil, nil
	}

	if guide.LicenseID != nil {
		for _, id := range freeIDs {
			if id != *guide.LicenseID {
				continue
			}
			// Re-check the stored preference against the event table: a
			// stale preference that turns out to conflict is treated as
			// unavailable and the allocation falls through to a free one.
			events := repository.NewGormEventRepository(tx)
			busy, err := events.LicenseHasOverlap(ctx, id, window, uuid.Nil)
			if err != nil {
				return uuid.Nil, err
			}
			if !busy {
				return id, nil
			}
		}
	}

	// Preferred license busy or unset: fall over to the first free one and
	// remember it for next time.
	chosen := freeIDs[0]
	guides := repository.NewGormGuideRepository(tx)
	if err := guides.SetLicense(ctx, guide.ID, chosen); err != nil {
		return uuid.Nil, err
	}
	guide.LicenseID = &chosen
	return chosen, nil
}
