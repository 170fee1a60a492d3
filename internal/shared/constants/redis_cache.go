package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs for the parkwise application.
// Pattern: parkwise:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG  = 24 * time.Hour // locations rarely change
	TTL_STATIC_SHORT = 1 * time.Hour  // location details

	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // booking details
	TTL_DYNAMIC_SHORT  = 2 * time.Minute  // slot availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "parkwise"
)

// ================== LOCATIONS MODULE ==================

const (
	CACHE_KEY_LOCATIONS_LIST   = CACHE_PREFIX + ":locations:list"         // + :page:X:limit:Y
	CACHE_KEY_LOCATION_DETAIL  = CACHE_PREFIX + ":locations:detail:uuid:" // + location-id
	TTL_LOCATION_LIST          = TTL_STATIC_SHORT
	TTL_LOCATION_DETAIL        = TTL_STATIC_SHORT
)

// ================== SLOTS / AVAILABILITY MODULE ==================

// Availability is cached read-through only. Every write to a slot or booking
// for a location must invalidate PATTERN_INVALIDATE_AVAILABILITY for that
// location; the TTL is only a secondary bound, never the invalidation strategy.
const (
	CACHE_KEY_AVAILABILITY = CACHE_PREFIX + ":slots:availability:location:" // + location-id:type:T:window:start-end
	CACHE_KEY_SLOTS_BY_LOC = CACHE_PREFIX + ":slots:list:location:"         // + location-id
	TTL_AVAILABILITY       = TTL_DYNAMIC_SHORT
	TTL_SLOTS_BY_LOCATION  = TTL_DYNAMIC_MEDIUM
)

// ================== BOOKINGS MODULE ==================

const (
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:uuid:" // + booking-id
	CACHE_KEY_USER_BOOKINGS  = CACHE_PREFIX + ":bookings:user:uuid:"   // + user-id:page:X
	TTL_BOOKING_DETAIL       = TTL_DYNAMIC_MEDIUM
	TTL_USER_BOOKINGS        = TTL_DYNAMIC_MEDIUM
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_LOCATIONS = CACHE_PREFIX + ":locations:*"
	PATTERN_INVALIDATE_SLOTS_ALL = CACHE_PREFIX + ":slots:*"
	PATTERN_INVALIDATE_BOOKINGS  = CACHE_PREFIX + ":bookings:*"
)

// ================== HELPER FUNCTIONS ==================

func BuildLocationDetailKey(locationID string) string {
	return CACHE_KEY_LOCATION_DETAIL + locationID
}

func BuildAvailabilityKey(locationID, vehicleType string, start, end int64) string {
	return fmt.Sprintf("%s%s:type:%s:window:%d-%d", CACHE_KEY_AVAILABILITY, locationID, vehicleType, start, end)
}

// BuildAvailabilityPattern matches every cached availability window for a
// location, regardless of vehicle type or window bounds.
func BuildAvailabilityPattern(locationID string) string {
	return CACHE_KEY_AVAILABILITY + locationID + ":*"
}

func BuildSlotsByLocationKey(locationID string) string {
	return CACHE_KEY_SLOTS_BY_LOC + locationID
}

func BuildBookingDetailKey(bookingID string) string {
	return CACHE_KEY_BOOKING_DETAIL + bookingID
}

func BuildUserBookingsKey(userID string, page int) string {
	return CACHE_KEY_USER_BOOKINGS + userID + ":page:" + fmt.Sprintf("%d", page)
}
