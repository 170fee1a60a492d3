package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetByLocation(ctx context.Context, locationID uuid.UUID) ([]Slot, error)
	CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, currentBookingID *uuid.UUID) error

	// FindFreeForWindow returns slots at the location with no time-overlapping
	// live booking for [start, end), ordered by slot_number ascending.
	// Vehicle-type compatibility is filtered by the caller.
	FindFreeForWindow(ctx context.Context, locationID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) ([]Slot, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, slot *Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	var slot Slot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) GetByLocation(ctx context.Context, locationID uuid.UUID) ([]Slot, error) {
	var result []Slot
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("slot_number ASC").
		Find(&result).Error
	return result, err
}

func (r *repository) CountByLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("location_id = ?", locationID).
		Count(&count).Error
	return count, err
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status, currentBookingID *uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Slot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             status,
			"current_booking_id": currentBookingID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *repository) FindFreeForWindow(ctx context.Context, locationID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) ([]Slot, error) {
	// Half-open interval overlap: existing.start < newEnd AND existing.end > newStart.
	// Touching boundaries do not overlap.
	overlapQuery := `
		SELECT 1 FROM bookings b
		WHERE b.slot_id = slots.id
		  AND b.status IN ('PENDING', 'CONFIRMED', 'ACTIVE')
		  AND b.start_time < ?
		  AND b.end_time > ?`
	args := []interface{}{end, start}

	if excludeBookingID != nil {
		overlapQuery += ` AND b.id <> ?`
		args = append(args, *excludeBookingID)
	}

	var result []Slot
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Where("status <> ?", StatusMaintenance).
		Where("NOT EXISTS ("+overlapQuery+")", args...).
		Order("slot_number ASC").
		Find(&result).Error

	return result, err
}
