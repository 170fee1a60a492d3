package bookings

import (
	"math"
	"time"

	"parkwise/internal/slots"
)

// HoursBetween returns the duration of [start, end) in fractional hours.
// A zero or negative window is rejected, never priced as zero.
func HoursBetween(start, end time.Time) (float64, error) {
	if !end.After(start) {
		return 0, slots.ErrInvalidWindow
	}
	return end.Sub(start).Hours(), nil
}

// ComputeAmount prices a window at the given hourly rate. With roundUp set,
// partial hours bill as full hours (2.5h becomes 3h); otherwise the exact
// fractional duration is charged. The result is rounded to cents.
func ComputeAmount(hourlyRate float64, start, end time.Time, roundUp bool) (float64, error) {
	hours, err := HoursBetween(start, end)
	if err != nil {
		return 0, err
	}
	if roundUp {
		hours = math.Ceil(hours)
	}
	return roundToCents(hourlyRate * hours), nil
}

// BillableHours returns the hours a window will be charged for under the
// location's rounding policy.
func BillableHours(start, end time.Time, roundUp bool) (float64, error) {
	hours, err := HoursBetween(start, end)
	if err != nil {
		return 0, err
	}
	if roundUp {
		hours = math.Ceil(hours)
	}
	return hours, nil
}

func roundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
