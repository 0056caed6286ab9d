package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/meeting"
	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/notify"
)

// newTestDB opens an in-memory sqlite with a hand-written sqlite-friendly
// schema matching the GORM models. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey, same as the postgres setup.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			firstname TEXT,
			lastname TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			tour_language TEXT,
			admin INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE guides (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			license_id TEXT,
			published INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			short_description TEXT,
			location TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE tours (
			id TEXT PRIMARY KEY,
			guide_id TEXT NOT NULL,
			title TEXT NOT NULL,
			subtitle TEXT,
			description TEXT,
			short_description TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			duration INTEGER NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE licenses (
			id TEXT PRIMARY KEY,
			meeting_user_id TEXT NOT NULL UNIQUE,
			last_guide_id TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			tour_id TEXT NOT NULL,
			guide_id TEXT NOT NULL,
			license_id TEXT,
			date DATETIME NOT NULL,
			cancelled_date DATETIME,
			license_start DATETIME,
			license_end DATETIME,
			meeting_details TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE event_registrations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			visited_at DATETIME,
			end_visit_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (user_id, event_id)
		);`,
		`CREATE TABLE comments (
			id TEXT PRIMARY KEY,
			event_registration_id TEXT NOT NULL UNIQUE,
			comment TEXT NOT NULL,
			rating INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE next_events (
			tour_id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			guide_id TEXT NOT NULL,
			license_id TEXT,
			date DATETIME NOT NULL,
			refreshed_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, admin bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := db.Create(&model.User{ID: id, Email: email, Admin: admin}).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return id
}

func seedGuide(t *testing.T, db *gorm.DB, userID uuid.UUID, licenseID *uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	g := model.Guide{ID: id, UserID: userID, LicenseID: licenseID, Published: true}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("seed guide: %v", err)
	}
	return id
}

func seedTour(t *testing.T, db *gorm.DB, guideID uuid.UUID, duration time.Duration, published bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	tour := model.Tour{ID: id, GuideID: guideID, Title: "walking tour", Duration: duration, Published: published}
	if err := db.Create(&tour).Error; err != nil {
		t.Fatalf("seed tour: %v", err)
	}
	return id
}

func seedLicense(t *testing.T, db *gorm.DB, meetingUserID string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := db.Create(&model.License{ID: id, MeetingUserID: meetingUserID}).Error; err != nil {
		t.Fatalf("seed license %s: %v", meetingUserID, err)
	}
	return id
}

// seedEvent inserts an event row directly, bypassing the lifecycle, with
// the license window derived the same way Create derives it.
func seedEvent(t *testing.T, db *gorm.DB, tourID, guideID uuid.UUID, licenseID *uuid.UUID, date time.Time, duration time.Duration) uuid.UUID {
	t.Helper()
	start := date.Add(-15 * time.Minute)
	end := date.Add(duration).Add(30 * time.Minute)
	id := uuid.New()
	e := model.Event{
		ID:           id,
		TourID:       tourID,
		GuideID:      guideID,
		LicenseID:    licenseID,
		Date:         date,
		LicenseStart: &start,
		LicenseEnd:   &end,
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return id
}

// fakeProvisioner records provisioning calls and optionally fails them.
type fakeProvisioner struct {
	mu      sync.Mutex
	created []string // meeting user ids
	deleted []int64
	fail    bool
}

func (f *fakeProvisioner) CreateMeeting(_ context.Context, meetingUserID string, _ time.Time, _, password string) (*meeting.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	f.created = append(f.created, meetingUserID)
	return &meeting.Details{ID: 9001, Password: password, JoinURL: "https://meet.example/9001"}, nil
}

func (f *fakeProvisioner) DeleteMeeting(_ context.Context, meetingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, meetingID)
	return nil
}

func (f *fakeProvisioner) Password(uuid.UUID) string { return "ab-cdef12" }

// recordQueue captures notifications instead of delivering them.
type recordQueue struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (q *recordQueue) Enqueue(n notify.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, n)
}

func (q *recordQueue) Now(_ context.Context, n notify.Notification) error {
	q.Enqueue(n)
	return nil
}

func (q *recordQueue) byTemplate(template string) []notify.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []notify.Notification
	for _, n := range q.sent {
		if n.Template == template {
			out = append(out, n)
		}
	}
	return out
}

type countKicker struct {
	mu    sync.Mutex
	kicks int
}

func (k *countKicker) Kick() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kicks++
}

func (k *countKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kicks
}
