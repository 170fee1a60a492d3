package database

import (
	"parkwise/internal/bookings"
	"parkwise/internal/locations"
	"parkwise/internal/slots"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&locations.Location{},
		&slots.Slot{},
		&bookings.Booking{},
		&bookings.Payment{},
	)
}
