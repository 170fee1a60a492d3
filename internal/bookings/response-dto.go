package bookings

import (
	"time"

	"github.com/google/uuid"

	"parkwise/internal/locations"
)

// QuoteResponse is the priced availability answer for a requested window.
// No slot is held; the caller books separately.
type QuoteResponse struct {
	LocationID     uuid.UUID             `json:"location_id"`
	VehicleType    locations.VehicleType `json:"vehicle_type"`
	StartTime      time.Time             `json:"start_time"`
	EndTime        time.Time             `json:"end_time"`
	Available      bool                  `json:"available"`
	AvailableSlots int                   `json:"available_slots"`
	HourlyRate     float64               `json:"hourly_rate"`
	BillableHours  float64               `json:"billable_hours"`
	TotalAmount    float64               `json:"total_amount"`
	Currency       string                `json:"currency"`
}

type BookingListResponse struct {
	Bookings   []Booking `json:"bookings"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}
