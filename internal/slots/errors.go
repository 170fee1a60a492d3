package slots

import "errors"

var (
	// ErrInvalidWindow is returned for a window with end <= start or a
	// start in the past.
	ErrInvalidWindow = errors.New("invalid booking window")

	// ErrUnsupportedVehicleType is returned when the location does not
	// serve the requested vehicle type.
	ErrUnsupportedVehicleType = errors.New("unsupported vehicle type")

	ErrSlotNotFound       = errors.New("slot not found")
	ErrSlotNumberTaken    = errors.New("slot number already exists at location")
	ErrLocationAtCapacity = errors.New("location already has its full number of slots")

	// ErrSlotStateInconsistent indicates the slot status and its booking
	// back-reference disagree. This is an invariant violation: it is
	// surfaced and logged loudly, never silently corrected.
	ErrSlotStateInconsistent = errors.New("slot state inconsistent")
)
