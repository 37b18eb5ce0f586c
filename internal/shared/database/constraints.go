package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds database constraints the ORM migration cannot
// express, mainly for booking concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Exclusion constraint backing the no-overlapping-confirmed-bookings
	// invariant. The application re-checks inside a transaction, this is the
	// database-level backstop.
	err := db.Exec(`
		CREATE EXTENSION IF NOT EXISTS btree_gist;
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		DO $$ BEGIN
			ALTER TABLE bookings
			ADD CONSTRAINT no_confirmed_overlap
			EXCLUDE USING gist (
				sub_court_id WITH =,
				date WITH =,
				tsrange(
					(date::text || ' ' || start_time)::timestamp,
					(date::text || ' ' || end_time)::timestamp
				) WITH &&
			) WHERE (status = 'CONFIRMED');
		EXCEPTION
			WHEN duplicate_table THEN NULL;
			WHEN duplicate_object THEN NULL;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Index for availability and overlap queries
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_slot_lookup
		ON bookings (sub_court_id, date, status);
	`).Error
	if err != nil {
		return err
	}

	// Index for the expiry sweep scanning stale pending payments
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payments_pending_age
		ON payments (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
