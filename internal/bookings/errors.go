package bookings

import "errors"

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrNoSlotAvailable        = errors.New("no slot available for the requested window")
	ErrBookingNotModifiable   = errors.New("booking cannot be modified in its current state")
	ErrAlreadyTerminal        = errors.New("booking is already in a terminal state")
	ErrExtensionConflict      = errors.New("slot is booked immediately after the current window")
	ErrConcurrentModification = errors.New("booking was modified concurrently, retry")
	ErrInvalidTransition      = errors.New("invalid booking state transition")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrDuplicatePayment       = errors.New("booking already has a completed payment")

	// errSlotClaimed is internal to the allocator: the candidate slot was
	// taken between resolution and the claim transaction.
	errSlotClaimed = errors.New("slot claimed by a concurrent booking")
)
