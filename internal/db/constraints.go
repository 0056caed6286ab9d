package db

import "gorm.io/gorm"

// ApplyPostgresConstraints installs the storage-level exclusion
// constraints that back the non-overlap invariants: no two active events
// may hold overlapping license windows for the same license or the same
// guide. Belt and braces on top of the per-guide lock — a concurrent
// writer that slips past the application check loses here.
//
// sqlite (tests) has no exclusion constraints; there the per-guide lock
// and single-writer semantics carry the invariant alone.
// The window columns are timestamptz, so the ranges must be tstzrange:
// postgres has no tsrange(timestamptz, timestamptz) overload.
var constraintStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'events_license_window_excl') THEN
			ALTER TABLE events ADD CONSTRAINT events_license_window_excl
			EXCLUDE USING gist (
				tstzrange(license_start, license_end) WITH &&,
				license_id WITH =
			) WHERE (cancelled_date IS NULL AND deleted_at IS NULL AND license_id IS NOT NULL);
		END IF;
	END $$`,
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'events_guide_window_excl') THEN
			ALTER TABLE events ADD CONSTRAINT events_guide_window_excl
			EXCLUDE USING gist (
				tstzrange(license_start, license_end) WITH &&,
				guide_id WITH =
			) WHERE (cancelled_date IS NULL AND deleted_at IS NULL AND license_start IS NOT NULL);
		END IF;
	END $$`,
}

func ApplyPostgresConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
