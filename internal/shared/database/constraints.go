package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds database constraints the allocator relies on for
// concurrency control. AutoMigrate cannot express these.
func MigrateConstraints(db *gorm.DB) error {
	// A slot number may appear only once per location.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_slot_number_per_location
		ON slots (location_id, slot_number);
	`).Error
	if err != nil {
		return err
	}

	// Overlap checks scan non-terminal bookings per slot; a partial index
	// keeps that scan cheap as terminal bookings accumulate.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_slot_live
		ON bookings (slot_id, start_time, end_time)
		WHERE status IN ('PENDING', 'CONFIRMED', 'ACTIVE');
	`).Error
	if err != nil {
		return err
	}

	// The expiry sweeper selects by status and age.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_status_created
		ON bookings (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	// A booking may have at most one completed payment; replayed gateway
	// events must not record a second one.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_completed_payment_per_booking
		ON payments (booking_id)
		WHERE status = 'COMPLETED';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
