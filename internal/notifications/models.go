package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a booking.
type EventType string

const (
	EventBookingCreated   EventType = "BOOKING_CREATED"
	EventBookingConfirmed EventType = "BOOKING_CONFIRMED"
	EventBookingActivated EventType = "BOOKING_ACTIVATED"
	EventBookingCompleted EventType = "BOOKING_COMPLETED"
	EventBookingCancelled EventType = "BOOKING_CANCELLED"
	EventBookingExpired   EventType = "BOOKING_EXPIRED"
	EventSlotReleased     EventType = "SLOT_RELEASED"
	EventRefundRequested  EventType = "REFUND_REQUESTED"
)

// BookingEvent is the message published to the booking events topic whenever
// a booking changes state. Downstream consumers (email, receipts, refund
// processing) react to these; the booking flow never blocks on them.
type BookingEvent struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	BookingID  uuid.UUID  `json:"booking_id"`
	BookingRef string     `json:"booking_ref"`
	UserID     uuid.UUID  `json:"user_id"`
	LocationID uuid.UUID  `json:"location_id"`
	SlotID     *uuid.UUID `json:"slot_id,omitempty"`
	Amount     float64    `json:"amount,omitempty"`
	Currency   string     `json:"currency,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType, bookingID uuid.UUID, bookingRef string, userID, locationID uuid.UUID) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		BookingRef: bookingRef,
		UserID:     userID,
		LocationID: locationID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events for one booking to the same partition so
// consumers see them in order.
func (e *BookingEvent) PartitionKey() string {
	return e.BookingID.String()
}
