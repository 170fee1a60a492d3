package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkwise/internal/slots"
)

type Repository interface {
	CreateWithSlotClaim(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByRef(ctx context.Context, ref string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error)

	Confirm(ctx context.Context, booking *Booking) error
	Activate(ctx context.Context, booking *Booking, enteredAt time.Time) error
	Complete(ctx context.Context, booking *Booking, exitedAt time.Time) error
	Cancel(ctx context.Context, booking *Booking, refunded bool) error
	Expire(ctx context.Context, booking *Booking) error
	UpdateWindow(ctx context.Context, booking *Booking, start, end time.Time, hours, amount float64) error

	HasOverlap(ctx context.Context, slotID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
	FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error)

	CreatePayment(ctx context.Context, payment *Payment) error
	GetPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// liveStatuses are the booking states that hold a claim on a slot's time window.
var liveStatuses = []Status{StatusPending, StatusConfirmed, StatusActive}

// CreateWithSlotClaim atomically claims the candidate slot and persists the
// booking. The slot row is locked for the duration of the transaction and the
// window overlap is re-checked under the lock, so two concurrent requests for
// the same slot cannot both commit; the loser gets errSlotClaimed.
func (r *repository) CreateWithSlotClaim(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := r.lockSlot(tx, booking.SlotID)
		if err != nil {
			return err
		}
		if slot.Status == slots.StatusMaintenance {
			return errSlotClaimed
		}

		var overlapping int64
		err = tx.Model(&Booking{}).
			Where("slot_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
				booking.SlotID, liveStatuses, booking.EndTime, booking.StartTime).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return errSlotClaimed
		}

		if err := tx.Create(booking).Error; err != nil {
			return err
		}

		// The slot's status and back-reference describe who holds it right
		// now. A slot already held by an earlier booking keeps that claim;
		// this reservation is protected by its window, not the status flag.
		if slot.Status == slots.StatusAvailable {
			return tx.Model(&slots.Slot{}).
				Where("id = ?", slot.ID).
				Updates(map[string]interface{}{
					"status":             slots.StatusReserved,
					"current_booking_id": booking.ID,
				}).Error
		}
		return nil
	})
}

// lockSlot reads the slot under FOR UPDATE where the dialect supports it.
// sqlite serializes writers on its own, so the in-transaction overlap
// re-check above still closes the race there.
func (r *repository) lockSlot(tx *gorm.DB, slotID uuid.UUID) (*slots.Slot, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var slot slots.Slot
	if err := q.Where("id = ?", slotID).First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, slots.ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Payments").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByRef(ctx context.Context, ref string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Payments").First(&booking, "booking_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	var bookings []Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *repository) Confirm(ctx context.Context, booking *Booking) error {
	return r.transition(ctx, booking, StatusConfirmed, map[string]interface{}{
		"payment_status": PaymentPaid,
	}, nil)
}

func (r *repository) Activate(ctx context.Context, booking *Booking, enteredAt time.Time) error {
	return r.transition(ctx, booking, StatusActive, map[string]interface{}{
		"entered_at": enteredAt,
	}, func(tx *gorm.DB) error {
		return r.occupySlot(tx, booking)
	})
}

func (r *repository) Complete(ctx context.Context, booking *Booking, exitedAt time.Time) error {
	return r.transition(ctx, booking, StatusCompleted, map[string]interface{}{
		"exited_at": exitedAt,
	}, func(tx *gorm.DB) error {
		// An active booking's vehicle is physically in the slot; anything
		// else is corrupted bookkeeping.
		return r.releaseSlot(tx, booking, true)
	})
}

func (r *repository) Cancel(ctx context.Context, booking *Booking, refunded bool) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"cancelled_at": now,
	}
	if refunded {
		updates["payment_status"] = PaymentRefunded
	}
	return r.transition(ctx, booking, StatusCancelled, updates, func(tx *gorm.DB) error {
		return r.releaseSlot(tx, booking, false)
	})
}

func (r *repository) Expire(ctx context.Context, booking *Booking) error {
	now := time.Now().UTC()
	return r.transition(ctx, booking, StatusExpired, map[string]interface{}{
		"expired_at": now,
	}, func(tx *gorm.DB) error {
		return r.releaseSlot(tx, booking, false)
	})
}

// transition applies a status change with an optimistic version guard. A
// concurrent writer bumps the version first and this update matches zero
// rows, which surfaces as ErrConcurrentModification.
func (r *repository) transition(ctx context.Context, booking *Booking, to Status, extra map[string]interface{}, slotFn func(tx *gorm.DB) error) error {
	if !booking.Status.CanTransitionTo(to) {
		if booking.Status.IsTerminal() {
			return ErrAlreadyTerminal
		}
		return ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"status":  to,
		"version": booking.Version + 1,
	}
	for k, v := range extra {
		updates[k] = v
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).
			Where("id = ? AND version = ?", booking.ID, booking.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConcurrentModification
		}

		if slotFn != nil {
			if err := slotFn(tx); err != nil {
				return err
			}
		}

		booking.Status = to
		booking.Version++
		return nil
	})
}

// occupySlot marks the slot physically taken by the entering vehicle. A slot
// already occupied by a different booking means two vehicles in one slot;
// that is reported, never patched over.
func (r *repository) occupySlot(tx *gorm.DB, booking *Booking) error {
	slot, err := r.lockSlot(tx, booking.SlotID)
	if err != nil {
		return err
	}
	if slot.Status == slots.StatusOccupied &&
		(slot.CurrentBookingID == nil || *slot.CurrentBookingID != booking.ID) {
		return slots.ErrSlotStateInconsistent
	}

	return tx.Model(&slots.Slot{}).Where("id = ?", slot.ID).Updates(map[string]interface{}{
		"status":             slots.StatusOccupied,
		"current_booking_id": booking.ID,
	}).Error
}

// releaseSlot frees the slot if this booking is the one holding it. A later
// reservation may hold the claim instead; their claim stands and nothing
// changes. With strict set the booking must own the slot (gate exit).
func (r *repository) releaseSlot(tx *gorm.DB, booking *Booking, strict bool) error {
	slot, err := r.lockSlot(tx, booking.SlotID)
	if err != nil {
		return err
	}
	if slot.CurrentBookingID == nil || *slot.CurrentBookingID != booking.ID {
		if strict {
			return slots.ErrSlotStateInconsistent
		}
		return nil
	}

	return tx.Model(&slots.Slot{}).Where("id = ?", slot.ID).Updates(map[string]interface{}{
		"status":             slots.StatusAvailable,
		"current_booking_id": nil,
	}).Error
}

func (r *repository) UpdateWindow(ctx context.Context, booking *Booking, start, end time.Time, hours, amount float64) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(map[string]interface{}{
			"start_time":     start,
			"end_time":       end,
			"duration_hours": hours,
			"total_amount":   amount,
			"version":        booking.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	booking.StartTime = start
	booking.EndTime = end
	booking.DurationHours = hours
	booking.TotalAmount = amount
	booking.Version++
	return nil
}

func (r *repository) HasOverlap(ctx context.Context, slotID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("slot_id = ? AND id <> ? AND status IN ? AND start_time < ? AND end_time > ?",
			slotID, excludeID, liveStatuses, end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindExpiredCandidates returns bookings created before the cutoff that were
// never claimed at the gate, oldest first, capped at limit so a single sweep
// stays bounded.
func (r *repository) FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ? AND entered_at IS NULL",
			[]Status{StatusPending, StatusConfirmed}, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// CreatePayment records a gateway attempt. A booking may accumulate any
// number of failed attempts but at most one completed one; a replayed
// success is rejected with ErrDuplicatePayment.
func (r *repository) CreatePayment(ctx context.Context, payment *Payment) error {
	if payment.Status != PaymentAttemptCompleted {
		return r.db.WithContext(ctx).Create(payment).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var completed int64
		err := tx.Model(&Payment{}).
			Where("booking_id = ? AND status = ?", payment.BookingID, PaymentAttemptCompleted).
			Count(&completed).Error
		if err != nil {
			return err
		}
		if completed > 0 {
			return ErrDuplicatePayment
		}
		return tx.Create(payment).Error
	})
}

func (r *repository) GetPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var payments []Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}
