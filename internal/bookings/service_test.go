package bookings

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"parkwise/internal/locations"
	"parkwise/internal/notifications"
	"parkwise/internal/shared/config"
	"parkwise/internal/slots"
	"parkwise/pkg/logger"
)

/* ==================== MOCKS ==================== */

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event *notifications.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error                          { return nil }
func (m *MockPublisher) HealthCheck(ctx context.Context) error { return nil }

// failingLocationGetter simulates a transient location-store outage.
type failingLocationGetter struct{}

func (failingLocationGetter) GetLocation(ctx context.Context, id uuid.UUID) (*locations.Location, error) {
	return nil, errors.New("location lookup failed")
}

/* ==================== FIXTURES ==================== */

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", uuid.NewString())
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	// sqlite serializes writers; a single connection keeps concurrent test
	// goroutines from tripping over lock errors.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&locations.Location{}, &slots.Slot{}, &Booking{}, &Payment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	service   Service
	repo      Repository
	publisher *MockPublisher
	location  *locations.Location
	slots     []slots.Slot
}

func newFixture(t *testing.T, slotCount int, roundUp bool) *fixture {
	t.Helper()
	db := setupTestDB(t)

	location := &locations.Location{
		Name:          "Test Garage",
		HourlyRate:    50.0,
		TotalCapacity: slotCount,
		SupportedVehicleTypes: locations.VehicleTypes{
			locations.VehicleTypeCar, locations.VehicleTypeMotorcycle,
		},
		RoundUpHours: roundUp,
		Active:       true,
	}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("failed to create location: %v", err)
	}

	created := make([]slots.Slot, 0, slotCount)
	for i := 1; i <= slotCount; i++ {
		slot := slots.Slot{
			LocationID:   location.ID,
			SlotNumber:   i,
			VehicleTypes: location.SupportedVehicleTypes,
			Status:       slots.StatusAvailable,
		}
		if err := db.Create(&slot).Error; err != nil {
			t.Fatalf("failed to create slot: %v", err)
		}
		created = append(created, slot)
	}

	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	locationService := locations.NewService(locations.NewRepository(db))
	slotService := slots.NewService(slots.NewRepository(db), locationService, nil)
	repo := NewRepository(db)

	cfg := config.BookingConfig{
		ExpiryDuration: 15 * time.Minute,
		SweepInterval:  time.Minute,
		SweepBatch:     100,
		Currency:       "USD",
	}
	service := NewService(repo, slotService, locationService, publisher, logger.New(), cfg)

	return &fixture{
		db:        db,
		service:   service,
		repo:      repo,
		publisher: publisher,
		location:  location,
		slots:     created,
	}
}

func (f *fixture) createRequest(start, end time.Time) CreateBookingRequest {
	return CreateBookingRequest{
		VehicleID:   uuid.New(),
		VehicleType: locations.VehicleTypeCar,
		LocationID:  f.location.ID,
		StartTime:   start,
		EndTime:     end,
	}
}

func (f *fixture) slotByID(t *testing.T, id uuid.UUID) *slots.Slot {
	t.Helper()
	var slot slots.Slot
	if err := f.db.First(&slot, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to load slot: %v", err)
	}
	return &slot
}

func (f *fixture) backdate(t *testing.T, bookingID uuid.UUID, createdAt time.Time) {
	t.Helper()
	err := f.db.Model(&Booking{}).Where("id = ?", bookingID).
		UpdateColumn("created_at", createdAt).Error
	if err != nil {
		t.Fatalf("failed to backdate booking: %v", err)
	}
}

func futureWindow(hours float64) (time.Time, time.Time) {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	return start, start.Add(time.Duration(hours * float64(time.Hour)))
}

/* ==================== ALLOCATION ==================== */

func TestCreateBooking_AllocatesLowestSlotNumber(t *testing.T) {
	f := newFixture(t, 3, false)
	start, end := futureWindow(2.5)

	booking, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))

	assert.NoError(t, err)
	assert.Equal(t, f.slots[0].ID, booking.SlotID, "first free slot by slot_number wins")
	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, PaymentUnpaid, booking.PaymentStatus)
	assert.Equal(t, 125.0, booking.TotalAmount)
	assert.Equal(t, 50.0, booking.HourlyRate)
	assert.Contains(t, booking.BookingRef, "PRK-")

	slot := f.slotByID(t, booking.SlotID)
	assert.Equal(t, slots.StatusReserved, slot.Status)
	assert.NotNil(t, slot.CurrentBookingID)
	assert.Equal(t, booking.ID, *slot.CurrentBookingID)
}

func TestCreateBooking_AdjacentWindowsShareSlot(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	first, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)

	// [end, end+2h) touches the first window; half-open semantics mean no overlap.
	second, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(end, end.Add(2*time.Hour)))
	assert.NoError(t, err)
	assert.Equal(t, first.SlotID, second.SlotID)
}

func TestCreateBooking_NoSlotAvailable(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)

	// Overlapping window on a fully booked location
	_, err = f.service.CreateBooking(context.Background(), uuid.New(),
		f.createRequest(start.Add(time.Hour), end.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrNoSlotAvailable)
}

func TestCreateBooking_ConcurrentRequestsGetDistinctSlots(t *testing.T) {
	f := newFixture(t, 2, false)
	start, end := futureWindow(3)

	var wg sync.WaitGroup
	results := make([]*Booking, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.NotEqual(t, results[0].SlotID, results[1].SlotID,
		"concurrent requests for the same window must claim different slots")
}

func TestCreateBooking_ConcurrentRequestsForLastSlot(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
		}(i)
	}
	wg.Wait()

	// Exactly one request wins the last slot; the loser gets a clean
	// no-slot error, never a partial booking.
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrNoSlotAvailable)
		}
	}
	assert.Equal(t, 1, winners)

	var count int64
	assert.NoError(t, f.db.Model(&Booking{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateBooking_NoOverlapUnderConcurrentLoad(t *testing.T) {
	f := newFixture(t, 3, false)
	base, _ := futureWindow(1)

	// Randomized windows over a small pool; some requests must lose, and
	// no two winners may overlap on the same slot.
	rng := rand.New(rand.NewSource(42))
	const attempts = 12
	windows := make([][2]time.Time, attempts)
	for i := range windows {
		start := base.Add(time.Duration(rng.Intn(6)) * time.Hour)
		end := start.Add(time.Duration(1+rng.Intn(3)) * time.Hour)
		windows[i] = [2]time.Time{start, end}
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CreateBooking(context.Background(), uuid.New(),
				f.createRequest(windows[i][0], windows[i][1]))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrNoSlotAvailable)
		}
	}

	var bookings []Booking
	assert.NoError(t, f.db.Find(&bookings).Error)
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			a, b := bookings[i], bookings[j]
			if a.SlotID != b.SlotID || a.Status.IsTerminal() || b.Status.IsTerminal() {
				continue
			}
			overlap := a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
			assert.False(t, overlap, "bookings %s and %s overlap on slot %s", a.ID, b.ID, a.SlotID)
		}
	}
}

func TestCreateBooking_InvalidWindowRejected(t *testing.T) {
	f := newFixture(t, 1, false)
	start, _ := futureWindow(2)

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, start))
	assert.ErrorIs(t, err, slots.ErrInvalidWindow)

	_, err = f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, start.Add(-time.Hour)))
	assert.ErrorIs(t, err, slots.ErrInvalidWindow)
}

func TestCreateBooking_UnsupportedVehicleType(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	req := f.createRequest(start, end)
	req.VehicleType = locations.VehicleTypeTruck // location only supports car + motorcycle

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, slots.ErrUnsupportedVehicleType)
}

func TestCreateBooking_RoundUpLocation(t *testing.T) {
	f := newFixture(t, 1, true)
	start, end := futureWindow(2.5)

	booking, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))

	assert.NoError(t, err)
	assert.Equal(t, 150.0, booking.TotalAmount, "2.5h rounds up to 3h at 50/h")
	assert.Equal(t, 2.5, booking.DurationHours, "recorded duration stays exact")
}

/* ==================== LIFECYCLE ==================== */

func TestPaymentConfirmation_ConfirmsPendingBooking(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	err = f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", "")
	assert.NoError(t, err)

	got, err := f.service.GetBooking(context.Background(), booking.ID, userID, false)
	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)
	assert.Len(t, got.Payments, 1)
	assert.Equal(t, PaymentAttemptCompleted, got.Payments[0].Status)
}

func TestPaymentConfirmation_ReplayedEventRecordsSinglePayment(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	// The gateway delivers the same success twice (at-least-once topic).
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))

	got, err := f.service.GetBooking(context.Background(), booking.ID, userID, false)
	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	completed := 0
	for _, p := range got.Payments {
		if p.Status == PaymentAttemptCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed, "a booking holds at most one completed payment")
}

func TestPaymentFailure_LeavesBookingPending(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	err = f.service.HandlePaymentResult(context.Background(), booking.ID, false, booking.TotalAmount, "mockpay", "txn-1", "card declined")
	assert.NoError(t, err)

	got, err := f.service.GetBooking(context.Background(), booking.ID, userID, false)
	assert.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PaymentUnpaid, got.PaymentStatus)
	assert.Len(t, got.Payments, 1)
	assert.Equal(t, PaymentAttemptFailed, got.Payments[0].Status)
}

func TestGateEntryAndExit_DriveSlotState(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))

	// Entry before confirmation is already covered; here confirmed -> active.
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))
	slot := f.slotByID(t, booking.SlotID)
	assert.Equal(t, slots.StatusOccupied, slot.Status)

	assert.NoError(t, f.service.HandleGateExit(context.Background(), booking.ID, end))
	slot = f.slotByID(t, booking.SlotID)
	assert.Equal(t, slots.StatusAvailable, slot.Status)
	assert.Nil(t, slot.CurrentBookingID)

	got, err := f.service.GetBooking(context.Background(), booking.ID, userID, false)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestGateEntry_RequiresConfirmedBooking(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)

	err = f.service.HandleGateEntry(context.Background(), booking.ID, start)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking_ReleasesSlot(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	cancelled, err := f.service.CancelBooking(context.Background(), booking.ID, userID, false, "change of plans")
	assert.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	slot := f.slotByID(t, booking.SlotID)
	assert.Equal(t, slots.StatusAvailable, slot.Status)
	assert.Nil(t, slot.CurrentBookingID)

	// Slot is immediately bookable again
	_, err = f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)
}

func TestCancelBooking_TerminalIsFinal(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), booking.ID, userID, false, "")
	assert.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), booking.ID, userID, false, "")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelBooking_ActiveNotCancellable(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))

	_, err = f.service.CancelBooking(context.Background(), booking.ID, userID, false, "")
	assert.ErrorIs(t, err, ErrBookingNotModifiable)
}

func TestCancelBooking_PaidBookingTriggersRefund(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))

	cancelled, err := f.service.CancelBooking(context.Background(), booking.ID, userID, false, "")
	assert.NoError(t, err)
	assert.Equal(t, PaymentRefunded, cancelled.PaymentStatus)
}

func TestGetBooking_OtherUsersBookingHidden(t *testing.T) {
	f := newFixture(t, 1, false)
	owner := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), owner, f.createRequest(start, end))
	assert.NoError(t, err)

	_, err = f.service.GetBooking(context.Background(), booking.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// Admins see everything
	got, err := f.service.GetBooking(context.Background(), booking.ID, uuid.New(), true)
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
}

/* ==================== WINDOW EDITS ==================== */

func TestUpdateBookingWindow_RecomputesAmount(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.Equal(t, 100.0, booking.TotalAmount)

	updated, err := f.service.UpdateBookingWindow(context.Background(), booking.ID, userID, false,
		start, start.Add(4*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 200.0, updated.TotalAmount)
	assert.Equal(t, 4.0, updated.DurationHours)
	assert.Equal(t, booking.SlotID, updated.SlotID, "window edits keep the slot")
}

func TestUpdateBookingWindow_ConflictingWindowRejected(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	// Second booking takes [end, end+2h) on the same (only) slot
	_, err = f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(end, end.Add(2*time.Hour)))
	assert.NoError(t, err)

	_, err = f.service.UpdateBookingWindow(context.Background(), booking.ID, userID, false,
		start, end.Add(time.Hour))
	assert.ErrorIs(t, err, ErrBookingNotModifiable)
}

func TestUpdateBookingWindow_ActiveNotEditable(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))

	_, err = f.service.UpdateBookingWindow(context.Background(), booking.ID, userID, false, start, end.Add(time.Hour))
	assert.ErrorIs(t, err, ErrBookingNotModifiable)
}

func TestExtendBooking_ConflictWithFollowingBooking(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))

	// Another booking starts one hour after the current end
	_, err = f.service.CreateBooking(context.Background(), uuid.New(),
		f.createRequest(end.Add(time.Hour), end.Add(3*time.Hour)))
	assert.NoError(t, err)

	// Extending by 2h would run into it
	_, err = f.service.ExtendBooking(context.Background(), booking.ID, userID, false, 2)
	assert.ErrorIs(t, err, ErrExtensionConflict)

	// Extending by exactly 1h ends where the next booking starts; half-open
	// windows make that legal.
	extended, err := f.service.ExtendBooking(context.Background(), booking.ID, userID, false, 1)
	assert.NoError(t, err)
	assert.Equal(t, end.Add(time.Hour), extended.EndTime)
	assert.Equal(t, 150.0, extended.TotalAmount)
}

func TestExtendBooking_OnlyActive(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	_, err = f.service.ExtendBooking(context.Background(), booking.ID, userID, false, 1)
	assert.ErrorIs(t, err, ErrBookingNotModifiable)
}

func TestExtendBooking_LocationLookupFailureSurfaces(t *testing.T) {
	f := newFixture(t, 1, true)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))

	// Same repo and resolver, but the location store is down. The extend
	// must fail rather than silently repricing with exact hours.
	locationService := locations.NewService(locations.NewRepository(f.db))
	slotService := slots.NewService(slots.NewRepository(f.db), locationService, nil)
	cfg := config.BookingConfig{ExpiryDuration: 15 * time.Minute, SweepInterval: time.Minute, SweepBatch: 100, Currency: "USD"}
	broken := NewService(f.repo, slotService, failingLocationGetter{}, f.publisher, logger.New(), cfg)

	_, err = broken.ExtendBooking(context.Background(), booking.ID, userID, false, 1)
	assert.Error(t, err)

	var after Booking
	assert.NoError(t, f.db.First(&after, "id = ?", booking.ID).Error)
	assert.True(t, after.EndTime.Equal(end), "a failed extend must not move the window")
	assert.Equal(t, booking.TotalAmount, after.TotalAmount)
}

/* ==================== EXPIRY SWEEP ==================== */

func TestSweep_ExpiryBoundary(t *testing.T) {
	f := newFixture(t, 2, false)
	start, end := futureWindow(2)

	fresh, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)
	stale, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)

	now := time.Now().UTC()
	f.backdate(t, fresh.ID, now.Add(-14*time.Minute-59*time.Second))
	f.backdate(t, stale.ID, now.Add(-15*time.Minute-1*time.Second))

	expired, err := f.service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)

	var staleAfter, freshAfter Booking
	assert.NoError(t, f.db.First(&staleAfter, "id = ?", stale.ID).Error)
	assert.NoError(t, f.db.First(&freshAfter, "id = ?", fresh.ID).Error)
	assert.Equal(t, StatusExpired, staleAfter.Status)
	assert.NotNil(t, staleAfter.ExpiredAt)
	assert.Equal(t, StatusPending, freshAfter.Status)

	slot := f.slotByID(t, stale.SlotID)
	assert.Equal(t, slots.StatusAvailable, slot.Status)
	assert.Nil(t, slot.CurrentBookingID)
}

func TestSweep_ConfirmedButUnclaimedExpires(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))

	f.backdate(t, booking.ID, time.Now().UTC().Add(-16*time.Minute))

	expired, err := f.service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestSweep_ActiveBookingNeverExpires(t *testing.T) {
	f := newFixture(t, 1, false)
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), uuid.New(), f.createRequest(start, end))
	assert.NoError(t, err)
	assert.NoError(t, f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-1", ""))
	assert.NoError(t, f.service.HandleGateEntry(context.Background(), booking.ID, start))

	f.backdate(t, booking.ID, time.Now().UTC().Add(-time.Hour))

	expired, err := f.service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestPaymentAfterExpiry_NoOps(t *testing.T) {
	f := newFixture(t, 1, false)
	userID := uuid.New()
	start, end := futureWindow(2)

	booking, err := f.service.CreateBooking(context.Background(), userID, f.createRequest(start, end))
	assert.NoError(t, err)

	f.backdate(t, booking.ID, time.Now().UTC().Add(-16*time.Minute))
	expired, err := f.service.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)

	// A late payment confirmation must not resurrect the booking.
	err = f.service.HandlePaymentResult(context.Background(), booking.ID, true, booking.TotalAmount, "mockpay", "txn-late", "")
	assert.NoError(t, err)

	got, err := f.service.GetBooking(context.Background(), booking.ID, userID, false)
	assert.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}
