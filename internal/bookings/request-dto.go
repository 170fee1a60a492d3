package bookings

import (
	"time"

	"github.com/google/uuid"

	"parkwise/internal/locations"
)

type CreateBookingRequest struct {
	VehicleID   uuid.UUID             `json:"vehicle_id" binding:"required" validate:"required"`
	VehicleType locations.VehicleType `json:"vehicle_type" binding:"required" validate:"required,oneof=car motorcycle truck van"`
	LocationID  uuid.UUID             `json:"location_id" binding:"required" validate:"required"`
	StartTime   time.Time             `json:"start_time" binding:"required" validate:"required"`
	EndTime     time.Time             `json:"end_time" binding:"required" validate:"required,gtfield=StartTime"`
}

type QuoteRequest struct {
	VehicleType string `form:"vehicle_type" binding:"required"`
	StartTime   string `form:"start_time" binding:"required"`
	EndTime     string `form:"end_time" binding:"required"`
}

type UpdateBookingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type ExtendBookingRequest struct {
	AdditionalHours float64 `json:"additional_hours" binding:"required,gt=0"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}
