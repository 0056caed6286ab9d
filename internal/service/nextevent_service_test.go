package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextEventService_Rebuild_PicksEarliestActiveFuture(t *testing.T) {
	db := newTestDB(t)
	licenseID := seedLicense(t, db, "acct-1")
	guideUser := seedUser(t, db, "guide@example.com", false)
	guideID := seedGuide(t, db, guideUser, nil)
	tourID := seedTour(t, db, guideID, time.Hour, true)
	emptyTourID := seedTour(t, db, guideID, time.Hour, true)

	now := time.Now().Truncate(time.Second)

	// Past and cancelled events never win.
	seedEvent(t, db, tourID, guideID, nil, now.Add(-24*time.Hour), time.Hour)
	cancelledID := seedEvent(t, db, tourID, guideID, nil, now.Add(12*time.Hour), time.Hour)
	require.NoError(t, db.Exec(
		"UPDATE events SET cancelled_date = ? WHERE id = ?", now, cancelledID,
	).Error)

	soonID := seedEvent(t, db, tourID, guideID, &licenseID, now.Add(24*time.Hour), time.Hour)
	seedEvent(t, db, tourID, guideID, &licenseID, now.Add(48*time.Hour), time.Hour)

	svc := NewNextEventService(db)
	ctx := context.Background()
	require.NoError(t, svc.Rebuild(ctx))

	ne, err := svc.ForTour(ctx, tourID)
	require.NoError(t, err)
	require.NotNil(t, ne)
	assert.Equal(t, soonID, ne.EventID)
	assert.Equal(t, guideID, ne.GuideID)

	// A tour with nothing scheduled has no projection row.
	none, err := svc.ForTour(ctx, emptyTourID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNextEventService_Rebuild_Idempotent(t *testing.T) {
	db := newTestDB(t)
	licenseID := seedLicense(t, db, "acct-1")
	guideUser := seedUser(t, db, "guide@example.com", false)
	guideID := seedGuide(t, db, guideUser, nil)
	tourID := seedTour(t, db, guideID, time.Hour, true)

	now := time.Now().Truncate(time.Second)
	firstID := seedEvent(t, db, tourID, guideID, &licenseID, now.Add(24*time.Hour), time.Hour)

	svc := NewNextEventService(db)
	ctx := context.Background()
	require.NoError(t, svc.Rebuild(ctx))
	require.NoError(t, svc.Rebuild(ctx))

	nes, err := svc.ForTours(ctx, []uuid.UUID{tourID})
	require.NoError(t, err)
	require.Len(t, nes, 1)
	assert.Equal(t, firstID, nes[0].EventID)

	// Cancelling the projected event changes the answer on the next run.
	require.NoError(t, db.Exec(
		"UPDATE events SET cancelled_date = ?, license_id = NULL WHERE id = ?", now, firstID,
	).Error)
	require.NoError(t, svc.Rebuild(ctx))

	ne, err := svc.ForTour(ctx, tourID)
	require.NoError(t, err)
	assert.Nil(t, ne)
}

func TestNextEventService_ForTours_OrdersByDate(t *testing.T) {
	db := newTestDB(t)
	licenseID := seedLicense(t, db, "acct-1")
	guideUser := seedUser(t, db, "guide@example.com", false)
	guideID := seedGuide(t, db, guideUser, nil)
	laterTour := seedTour(t, db, guideID, time.Hour, true)
	soonerTour := seedTour(t, db, guideID, time.Hour, true)

	now := time.Now().Truncate(time.Second)
	seedEvent(t, db, laterTour, guideID, &licenseID, now.Add(72*time.Hour), time.Hour)
	seedEvent(t, db, soonerTour, guideID, &licenseID, now.Add(24*time.Hour), time.Hour)

	svc := NewNextEventService(db)
	ctx := context.Background()
	require.NoError(t, svc.Rebuild(ctx))

	nes, err := svc.ForTours(ctx, []uuid.UUID{laterTour, soonerTour})
	require.NoError(t, err)
	require.Len(t, nes, 2)
	assert.Equal(t, soonerTour, nes[0].TourID)
	assert.Equal(t, laterTour, nes[1].TourID)

	empty, err := svc.ForTours(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
