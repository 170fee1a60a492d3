package locations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service interface defines the contract for location management.
// Rate changes here never touch existing bookings: every booking carries its
// own rate snapshot taken at creation time.
type Service interface {
	CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*Location, error)
	ListLocations(ctx context.Context, page, limit int) ([]Location, int64, error)
	UpdateHourlyRate(ctx context.Context, id uuid.UUID, rate float64) error
	UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error
	DeactivateLocation(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateLocation(ctx context.Context, req CreateLocationRequest) (*Location, error) {
	if req.HourlyRate <= 0 {
		return nil, ErrInvalidRate
	}

	types := make(VehicleTypes, 0, len(req.SupportedVehicleTypes))
	for _, raw := range req.SupportedVehicleTypes {
		vt := VehicleType(raw)
		if !vt.IsValid() {
			return nil, fmt.Errorf("unknown vehicle type %q", raw)
		}
		types = append(types, vt)
	}

	location := &Location{
		Name:                  req.Name,
		Latitude:              req.Latitude,
		Longitude:             req.Longitude,
		HourlyRate:            req.HourlyRate,
		TotalCapacity:         req.TotalCapacity,
		SupportedVehicleTypes: types,
		RoundUpHours:          req.RoundUpHours,
		Active:                true,
	}

	if err := s.repo.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListLocations(ctx context.Context, page, limit int) ([]Location, int64, error) {
	return s.repo.List(ctx, page, limit)
}

func (s *service) UpdateHourlyRate(ctx context.Context, id uuid.UUID, rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	return s.repo.UpdateRate(ctx, id, rate)
}

func (s *service) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("capacity cannot be negative")
	}
	return s.repo.UpdateCapacity(ctx, id, capacity)
}

func (s *service) DeactivateLocation(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}
