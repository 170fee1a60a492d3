package slots

import (
	"time"

	"parkwise/internal/locations"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status of a physical slot. Status tracks the slot right now; whether a slot
// can take a future booking is decided by the availability query, not by this
// field (only MAINTENANCE blocks future windows).
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusReserved    Status = "RESERVED"
	StatusOccupied    Status = "OCCUPIED"
	StatusMaintenance Status = "MAINTENANCE"
)

// IsValid checks if the slot status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Slot defines a physical parking slot within a location
type Slot struct {
	ID           uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	LocationID   uuid.UUID              `gorm:"type:uuid;index;not null" json:"location_id"`
	SlotNumber   int                    `gorm:"not null" json:"slot_number"`
	VehicleTypes locations.VehicleTypes `gorm:"type:text;not null" json:"vehicle_types"`
	Status       Status                 `gorm:"type:varchar(20);default:'AVAILABLE'" json:"status"`

	// Back-reference to the live booking holding this slot. Invariant:
	// AVAILABLE implies nil; RESERVED/OCCUPIED implies a non-terminal
	// booking. The booking owns the slot, not the other way around.
	CurrentBookingID *uuid.UUID `gorm:"type:uuid" json:"current_booking_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Slot
func (Slot) TableName() string {
	return "slots"
}

func (s *Slot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Accepts reports whether the slot is compatible with the vehicle type.
func (s *Slot) Accepts(t locations.VehicleType) bool {
	return s.VehicleTypes.Contains(t)
}

// StateConsistent verifies the status/back-reference invariant.
func (s *Slot) StateConsistent() bool {
	switch s.Status {
	case StatusAvailable, StatusMaintenance:
		return s.CurrentBookingID == nil
	case StatusReserved, StatusOccupied:
		return s.CurrentBookingID != nil
	}
	return false
}
