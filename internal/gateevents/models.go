package gateevents

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is the message the payment gateway publishes after an attempt
// settles. Consumed from the payments topic.
type PaymentEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Succeeded     bool      `json:"succeeded"`
	Amount        float64   `json:"amount"`
	Gateway       string    `json:"gateway"`
	TransactionID string    `json:"transaction_id"`
	FailureReason string    `json:"failure_reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// GateEvent is published by the lot's entry/exit barriers when a vehicle
// passes through. Consumed from the gate topic.
type GateEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Direction  string    `json:"direction"`
	GateID     string    `json:"gate_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	DirectionEntry = "ENTRY"
	DirectionExit  = "EXIT"
)
