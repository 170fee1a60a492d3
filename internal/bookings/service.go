package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parkwise/internal/locations"
	"parkwise/internal/notifications"
	"parkwise/internal/shared/config"
	"parkwise/internal/slots"
	"parkwise/pkg/logger"
)

// SlotResolver is the slice of the slot service the booking flow needs
// (interface here to avoid a dependency cycle).
type SlotResolver interface {
	FindAvailableSlots(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) ([]slots.Slot, error)
	FindAvailableSlotsExcluding(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time, excludeBookingID uuid.UUID) ([]slots.Slot, error)
	InvalidateAvailability(ctx context.Context, locationID uuid.UUID)
}

// LocationGetter fetches locations for rate snapshots and rounding policy.
type LocationGetter interface {
	GetLocation(ctx context.Context, id uuid.UUID) (*locations.Location, error)
}

type Service interface {
	Quote(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) (*QuoteResponse, error)
	CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*Booking, error)
	GetBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Booking, error)
	GetBookingByRef(ctx context.Context, ref string) (*Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error)
	CancelBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, reason string) (*Booking, error)
	UpdateBookingWindow(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, newStart, newEnd time.Time) (*Booking, error)
	ExtendBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, additionalHours float64) (*Booking, error)

	// Event-driven transitions, invoked by the Kafka consumer.
	HandlePaymentResult(ctx context.Context, bookingID uuid.UUID, succeeded bool, amount float64, gateway, transactionID, failureReason string) error
	HandleGateEntry(ctx context.Context, bookingID uuid.UUID, at time.Time) error
	HandleGateExit(ctx context.Context, bookingID uuid.UUID, at time.Time) error

	// Sweep expires stale unclaimed bookings and returns how many it expired.
	Sweep(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	resolver  SlotResolver
	locations LocationGetter
	publisher notifications.Publisher
	logger    *logger.Logger
	cfg       config.BookingConfig
}

func NewService(repo Repository, resolver SlotResolver, locationGetter LocationGetter, publisher notifications.Publisher, log *logger.Logger, cfg config.BookingConfig) Service {
	return &service{
		repo:      repo,
		resolver:  resolver,
		locations: locationGetter,
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
	}
}

func (s *service) Quote(ctx context.Context, locationID uuid.UUID, vehicleType locations.VehicleType, start, end time.Time) (*QuoteResponse, error) {
	candidates, err := s.resolver.FindAvailableSlots(ctx, locationID, vehicleType, start, end)
	if err != nil {
		return nil, err
	}

	location, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	amount, err := ComputeAmount(location.HourlyRate, start, end, location.RoundUpHours)
	if err != nil {
		return nil, err
	}
	hours, _ := BillableHours(start, end, location.RoundUpHours)

	return &QuoteResponse{
		LocationID:     locationID,
		VehicleType:    vehicleType,
		StartTime:      start,
		EndTime:        end,
		Available:      len(candidates) > 0,
		AvailableSlots: len(candidates),
		HourlyRate:     location.HourlyRate,
		BillableHours:  hours,
		TotalAmount:    amount,
		Currency:       s.cfg.Currency,
	}, nil
}

// CreateBooking resolves a free slot and claims it atomically. If the first
// candidate is snatched by a concurrent request, resolution is retried once
// before giving up with ErrNoSlotAvailable.
func (s *service) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*Booking, error) {
	location, err := s.locations.GetLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	amount, err := ComputeAmount(location.HourlyRate, req.StartTime, req.EndTime, location.RoundUpHours)
	if err != nil {
		return nil, err
	}
	hours, err := HoursBetween(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	var booking *Booking
	for attempt := 0; attempt < 2; attempt++ {
		candidates, err := s.resolver.FindAvailableSlots(ctx, req.LocationID, req.VehicleType, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, ErrNoSlotAvailable
		}

		candidate := &Booking{
			UserID:        userID,
			VehicleID:     req.VehicleID,
			VehicleType:   req.VehicleType,
			LocationID:    req.LocationID,
			SlotID:        candidates[0].ID,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			DurationHours: hours,
			HourlyRate:    location.HourlyRate,
			TotalAmount:   amount,
			Currency:      s.cfg.Currency,
			Status:        StatusPending,
			PaymentStatus: PaymentUnpaid,
			Version:       1,
		}

		err = s.repo.CreateWithSlotClaim(ctx, candidate)
		if err == nil {
			booking = candidate
			break
		}
		if !errors.Is(err, errSlotClaimed) {
			return nil, err
		}
	}
	if booking == nil {
		return nil, ErrNoSlotAvailable
	}

	s.resolver.InvalidateAvailability(ctx, booking.LocationID)
	s.logger.LogBookingCreated(ctx, booking.ID.String(), booking.SlotID.String(), booking.LocationID.String())
	s.emit(ctx, notifications.EventBookingCreated, booking, "")

	return booking, nil
}

func (s *service) GetBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.UserID != requesterID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *service) GetBookingByRef(ctx context.Context, ref string) (*Booking, error) {
	return s.repo.GetByRef(ctx, ref)
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.GetUserBookings(ctx, userID, page, limit)
}

func (s *service) CancelBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, reason string) (*Booking, error) {
	booking, err := s.GetBooking(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if booking.Status == StatusActive {
		return nil, ErrBookingNotModifiable
	}

	from := booking.Status
	refunded := booking.PaymentStatus == PaymentPaid
	if err := s.repo.Cancel(ctx, booking, refunded); err != nil {
		return nil, err
	}

	s.resolver.InvalidateAvailability(ctx, booking.LocationID)
	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(from), string(StatusCancelled))
	s.logger.LogSlotReleased(ctx, booking.SlotID.String(), booking.ID.String())
	s.emit(ctx, notifications.EventBookingCancelled, booking, reason)
	if refunded {
		s.emit(ctx, notifications.EventRefundRequested, booking, reason)
	}

	return booking, nil
}

func (s *service) UpdateBookingWindow(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, newStart, newEnd time.Time) (*Booking, error) {
	booking, err := s.GetBooking(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if booking.Status != StatusPending && booking.Status != StatusConfirmed {
		return nil, ErrBookingNotModifiable
	}

	// The booking keeps its slot, so the new window must still be free on
	// that same slot once this booking's own claim is ignored.
	candidates, err := s.resolver.FindAvailableSlotsExcluding(ctx, booking.LocationID, booking.VehicleType, newStart, newEnd, booking.ID)
	if err != nil {
		return nil, err
	}
	if !containsSlot(candidates, booking.SlotID) {
		return nil, ErrBookingNotModifiable
	}

	roundUp, err := s.roundUpPolicy(ctx, booking.LocationID)
	if err != nil {
		return nil, err
	}
	amount, err := ComputeAmount(booking.HourlyRate, newStart, newEnd, roundUp)
	if err != nil {
		return nil, err
	}
	hours, err := HoursBetween(newStart, newEnd)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWindow(ctx, booking, newStart, newEnd, hours, amount); err != nil {
		return nil, err
	}

	s.resolver.InvalidateAvailability(ctx, booking.LocationID)
	return booking, nil
}

func (s *service) ExtendBooking(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, additionalHours float64) (*Booking, error) {
	if additionalHours <= 0 {
		return nil, fmt.Errorf("%w: extension must be positive", slots.ErrInvalidWindow)
	}

	booking, err := s.GetBooking(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if booking.Status != StatusActive {
		return nil, ErrBookingNotModifiable
	}

	newEnd := booking.EndTime.Add(time.Duration(additionalHours * float64(time.Hour)))

	conflict, err := s.repo.HasOverlap(ctx, booking.SlotID, booking.EndTime, newEnd, booking.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrExtensionConflict
	}

	roundUp, err := s.roundUpPolicy(ctx, booking.LocationID)
	if err != nil {
		return nil, err
	}
	amount, err := ComputeAmount(booking.HourlyRate, booking.StartTime, newEnd, roundUp)
	if err != nil {
		return nil, err
	}
	hours, err := HoursBetween(booking.StartTime, newEnd)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWindow(ctx, booking, booking.StartTime, newEnd, hours, amount); err != nil {
		return nil, err
	}

	s.resolver.InvalidateAvailability(ctx, booking.LocationID)
	return booking, nil
}

// HandlePaymentResult records a gateway attempt. A successful payment moves a
// pending booking to confirmed; a booking that already raced into another
// state (expired, cancelled) is left alone and the attempt is only logged.
func (s *service) HandlePaymentResult(ctx context.Context, bookingID uuid.UUID, succeeded bool, amount float64, gateway, transactionID, failureReason string) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	status := PaymentAttemptFailed
	if succeeded {
		status = PaymentAttemptCompleted
	}
	payment := &Payment{
		BookingID:     booking.ID,
		Amount:        amount,
		Currency:      booking.Currency,
		Status:        status,
		Gateway:       gateway,
		TransactionID: transactionID,
		FailureReason: failureReason,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			// Replayed gateway event; the first success already confirmed
			// the booking and stands.
			s.logger.Warn("duplicate payment confirmation ignored",
				"booking_id", booking.ID.String(), "transaction_id", transactionID)
			return nil
		}
		return err
	}

	if !succeeded {
		s.logger.Warn("payment attempt failed",
			"booking_id", booking.ID.String(), "reason", failureReason)
		return nil
	}

	if booking.Status != StatusPending {
		s.logger.Warn("payment confirmed for booking no longer pending",
			"booking_id", booking.ID.String(), "status", string(booking.Status))
		return nil
	}

	if err := s.repo.Confirm(ctx, booking); err != nil {
		if errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrAlreadyTerminal) {
			// Lost the race against the sweeper or a cancel; the other
			// writer's transition stands.
			s.logger.Warn("payment confirmation lost transition race",
				"booking_id", booking.ID.String())
			return nil
		}
		return err
	}

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusPending), string(StatusConfirmed))
	s.emit(ctx, notifications.EventBookingConfirmed, booking, "")
	return nil
}

func (s *service) HandleGateEntry(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status != StatusConfirmed {
		return fmt.Errorf("%w: gate entry requires a confirmed booking, got %s", ErrInvalidTransition, booking.Status)
	}

	if err := s.repo.Activate(ctx, booking, at); err != nil {
		return err
	}

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusConfirmed), string(StatusActive))
	s.emit(ctx, notifications.EventBookingActivated, booking, "")
	return nil
}

func (s *service) HandleGateExit(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.Status != StatusActive {
		return fmt.Errorf("%w: gate exit requires an active booking, got %s", ErrInvalidTransition, booking.Status)
	}

	if err := s.repo.Complete(ctx, booking, at); err != nil {
		if errors.Is(err, slots.ErrSlotStateInconsistent) {
			s.logger.LogSlotStateInconsistent(ctx, booking.SlotID.String(), booking.ID.String(),
				"slot not held by this booking at gate exit")
		}
		return err
	}

	s.resolver.InvalidateAvailability(ctx, booking.LocationID)
	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusActive), string(StatusCompleted))
	s.logger.LogSlotReleased(ctx, booking.SlotID.String(), booking.ID.String())
	s.emit(ctx, notifications.EventBookingCompleted, booking, "")
	return nil
}

// Sweep expires bookings that sat unclaimed past the configured timeout. One
// booking failing to expire never aborts the rest of the batch.
func (s *service) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.ExpiryDuration)
	candidates, err := s.repo.FindExpiredCandidates(ctx, cutoff, s.cfg.SweepBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range candidates {
		booking := candidates[i]
		from := booking.Status
		if err := s.repo.Expire(ctx, &booking); err != nil {
			if errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrAlreadyTerminal) {
				// A user confirmed or cancelled it mid-sweep; their write wins.
				continue
			}
			s.logger.ErrorWithContext(ctx, "failed to expire booking", err, map[string]interface{}{
				"booking_id": booking.ID.String(),
			})
			continue
		}

		expired++
		s.resolver.InvalidateAvailability(ctx, booking.LocationID)
		s.logger.LogBookingTransition(ctx, booking.ID.String(), string(from), string(StatusExpired))
		s.logger.LogSlotReleased(ctx, booking.SlotID.String(), booking.ID.String())
		s.emit(ctx, notifications.EventBookingExpired, &booking, "not claimed within expiry window")
		s.emit(ctx, notifications.EventSlotReleased, &booking, "")
	}

	return expired, nil
}

func (s *service) emit(ctx context.Context, eventType notifications.EventType, booking *Booking, reason string) {
	event := notifications.NewBookingEvent(eventType, booking.ID, booking.BookingRef, booking.UserID, booking.LocationID)
	event.SlotID = &booking.SlotID
	event.Amount = booking.TotalAmount
	event.Currency = booking.Currency
	event.Reason = reason

	if err := s.publisher.Publish(ctx, event); err != nil {
		// Events are best-effort; the booking state is already committed.
		s.logger.Error("failed to publish booking event",
			"type", string(eventType), "booking_id", booking.ID.String(), "error", err.Error())
	}
}

func (s *service) roundUpPolicy(ctx context.Context, locationID uuid.UUID) (bool, error) {
	location, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return false, err
	}
	return location.RoundUpHours, nil
}

func containsSlot(candidates []slots.Slot, slotID uuid.UUID) bool {
	for i := range candidates {
		if candidates[i].ID == slotID {
			return true
		}
	}
	return false
}
