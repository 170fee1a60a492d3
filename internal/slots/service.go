package slots

import (
	"context"
	"fmt"
	"time"

	"parkwise/internal/locations"
	"parkwise/internal/shared/constants"
	"parkwise/pkg/cache"

	"github.com/google/uuid"
)

// LocationGetter is the slice of the locations service the resolver needs
// (interface here to avoid a dependency cycle).
type LocationGetter interface {
	GetLocation(ctx context.Context, id uuid.UUID) (*locations.Location, error)
}

// Service interface defines the contract for the slot registry and the
// availability resolver.
type Service interface {
	// Registry operations
	CreateSlot(ctx context.Context, req CreateSlotRequest) (*Slot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, locationID uuid.UUID) ([]Slot, error)
	SetMaintenance(ctx context.Context, id uuid.UUID, maintenance bool) error

	// FindAvailableSlots resolves the free, type-compatible slots for the
	// window [start, end). Read-only and safe to call repeatedly. Results
	// are ordered by slot number so allocation tie-break is deterministic.
	FindAvailableSlots(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) ([]Slot, error)

	// FindAvailableSlotsExcluding is FindAvailableSlots with one booking's
	// own windows ignored, used when moving an existing booking.
	FindAvailableSlotsExcluding(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time, excludeBookingID uuid.UUID) ([]Slot, error)

	// InvalidateAvailability drops every cached availability window for a
	// location. Called after any slot or booking write for that location.
	InvalidateAvailability(ctx context.Context, locationID uuid.UUID)
}

type service struct {
	repo      Repository
	locations LocationGetter
	cache     cache.Service // optional; nil disables the read-through cache
}

// NewService creates a new slot service instance
func NewService(repo Repository, locationGetter LocationGetter, cacheService cache.Service) Service {
	return &service{
		repo:      repo,
		locations: locationGetter,
		cache:     cacheService,
	}
}

func (s *service) CreateSlot(ctx context.Context, req CreateSlotRequest) (*Slot, error) {
	location, err := s.locations.GetLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.CountByLocation(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count slots: %w", err)
	}
	if location.TotalCapacity > 0 && taken >= int64(location.TotalCapacity) {
		return nil, ErrLocationAtCapacity
	}

	types := make(locations.VehicleTypes, 0, len(req.VehicleTypes))
	for _, raw := range req.VehicleTypes {
		vt := locations.VehicleType(raw)
		if !vt.IsValid() {
			return nil, fmt.Errorf("unknown vehicle type %q", raw)
		}
		if !location.Supports(vt) {
			return nil, fmt.Errorf("%w: location does not support %s", ErrUnsupportedVehicleType, vt)
		}
		types = append(types, vt)
	}

	slot := &Slot{
		LocationID:   req.LocationID,
		SlotNumber:   req.SlotNumber,
		VehicleTypes: types,
		Status:       StatusAvailable,
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	s.InvalidateAvailability(ctx, req.LocationID)
	return slot, nil
}

func (s *service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListSlots(ctx context.Context, locationID uuid.UUID) ([]Slot, error) {
	return s.repo.GetByLocation(ctx, locationID)
}

func (s *service) SetMaintenance(ctx context.Context, id uuid.UUID, maintenance bool) error {
	slot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if maintenance {
		if slot.Status == StatusReserved || slot.Status == StatusOccupied {
			return fmt.Errorf("slot %d has a live booking and cannot enter maintenance", slot.SlotNumber)
		}
		err = s.repo.SetStatus(ctx, id, StatusMaintenance, nil)
	} else {
		if slot.Status != StatusMaintenance {
			return fmt.Errorf("slot %d is not in maintenance", slot.SlotNumber)
		}
		err = s.repo.SetStatus(ctx, id, StatusAvailable, nil)
	}
	if err != nil {
		return err
	}

	s.InvalidateAvailability(ctx, slot.LocationID)
	return nil
}

func (s *service) FindAvailableSlots(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) ([]Slot, error) {
	if err := s.validateRequest(ctx, locationID, vehicleType, start, end); err != nil {
		return nil, err
	}

	// Read-through cache; authoritative state is always consulted on miss
	// and every slot/booking write invalidates the location's entries.
	if s.cache != nil {
		key := constants.BuildAvailabilityKey(locationID.String(), vehicleType.String(), start.Unix(), end.Unix())
		var cached []Slot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}

		result, err := s.resolve(ctx, locationID, vehicleType, start, end, nil)
		if err != nil {
			return nil, err
		}
		go func() {
			_ = s.cache.Set(context.Background(), key, result, constants.TTL_AVAILABILITY)
		}()
		return result, nil
	}

	return s.resolve(ctx, locationID, vehicleType, start, end, nil)
}

func (s *service) FindAvailableSlotsExcluding(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time, excludeBookingID uuid.UUID) ([]Slot, error) {
	if err := s.validateRequest(ctx, locationID, vehicleType, start, end); err != nil {
		return nil, err
	}
	// Never cached: the exclusion is booking-specific.
	return s.resolve(ctx, locationID, vehicleType, start, end, &excludeBookingID)
}

func (s *service) InvalidateAvailability(ctx context.Context, locationID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, constants.BuildAvailabilityPattern(locationID.String())); err != nil {
		// Stale entries are bounded by the TTL; nothing else to do here.
		_ = err
	}
}

func (s *service) validateRequest(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidWindow)
	}
	if start.Before(time.Now()) {
		return fmt.Errorf("%w: start must be in the future", ErrInvalidWindow)
	}
	if !vehicleType.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrUnsupportedVehicleType, vehicleType)
	}

	location, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if !location.Active {
		return locations.ErrLocationInactive
	}
	if !location.Supports(vehicleType) {
		return fmt.Errorf("%w: location does not support %s", ErrUnsupportedVehicleType, vehicleType)
	}
	return nil
}

func (s *service) resolve(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time, excludeBookingID *uuid.UUID) ([]Slot, error) {
	free, err := s.repo.FindFreeForWindow(ctx, locationID, start, end, excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}

	// Type compatibility is a property of a handful of rows per location;
	// filtering here keeps the SQL portable.
	result := make([]Slot, 0, len(free))
	for _, slot := range free {
		if slot.Accepts(vehicleType) {
			result = append(result, slot)
		}
	}
	return result, nil
}
