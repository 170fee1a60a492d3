package slots_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"parkwise/internal/bookings"
	"parkwise/internal/locations"
	"parkwise/internal/slots"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&locations.Location{}, &slots.Slot{}, &bookings.Booking{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type resolverFixture struct {
	db       *gorm.DB
	service  slots.Service
	location *locations.Location
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	db := setupTestDB(t)

	location := &locations.Location{
		Name:          "Resolver Test Lot",
		HourlyRate:    10.0,
		TotalCapacity: 10,
		SupportedVehicleTypes: locations.VehicleTypes{
			locations.VehicleTypeCar, locations.VehicleTypeMotorcycle,
		},
		Active: true,
	}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("failed to create location: %v", err)
	}

	locationService := locations.NewService(locations.NewRepository(db))
	service := slots.NewService(slots.NewRepository(db), locationService, nil)

	return &resolverFixture{db: db, service: service, location: location}
}

func (f *resolverFixture) addSlot(t *testing.T, number int, types locations.VehicleTypes, status slots.Status) *slots.Slot {
	t.Helper()
	if types == nil {
		types = f.location.SupportedVehicleTypes
	}
	slot := &slots.Slot{
		LocationID:   f.location.ID,
		SlotNumber:   number,
		VehicleTypes: types,
		Status:       status,
	}
	if err := f.db.Create(slot).Error; err != nil {
		t.Fatalf("failed to create slot: %v", err)
	}
	return slot
}

func (f *resolverFixture) addBooking(t *testing.T, slotID uuid.UUID, status bookings.Status, start, end time.Time) *bookings.Booking {
	t.Helper()
	booking := &bookings.Booking{
		UserID:        uuid.New(),
		VehicleID:     uuid.New(),
		VehicleType:   locations.VehicleTypeCar,
		LocationID:    f.location.ID,
		SlotID:        slotID,
		StartTime:     start,
		EndTime:       end,
		DurationHours: end.Sub(start).Hours(),
		HourlyRate:    10.0,
		TotalAmount:   end.Sub(start).Hours() * 10.0,
		Status:        status,
		PaymentStatus: bookings.PaymentUnpaid,
		Version:       1,
	}
	if err := f.db.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return booking
}

func window(hoursFromNow, durationHours float64) (time.Time, time.Time) {
	start := time.Now().UTC().Add(time.Duration(hoursFromNow * float64(time.Hour)))
	return start, start.Add(time.Duration(durationHours * float64(time.Hour)))
}

func TestFindAvailableSlots_OrderedBySlotNumber(t *testing.T) {
	f := newResolverFixture(t)
	// Created intentionally out of order
	f.addSlot(t, 3, nil, slots.StatusAvailable)
	f.addSlot(t, 1, nil, slots.StatusAvailable)
	f.addSlot(t, 2, nil, slots.StatusAvailable)

	start, end := window(24, 2)
	result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)

	assert.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, 1, result[0].SlotNumber)
	assert.Equal(t, 2, result[1].SlotNumber)
	assert.Equal(t, 3, result[2].SlotNumber)
}

func TestFindAvailableSlots_HalfOpenOverlap(t *testing.T) {
	f := newResolverFixture(t)
	slot := f.addSlot(t, 1, nil, slots.StatusAvailable)

	base := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	// Existing live booking holds [base+2h, base+4h)
	f.addBooking(t, slot.ID, bookings.StatusConfirmed, base.Add(2*time.Hour), base.Add(4*time.Hour))

	cases := []struct {
		name       string
		start, end time.Time
		free       bool
	}{
		{"before, touching start", base, base.Add(2 * time.Hour), true},
		{"after, touching end", base.Add(4 * time.Hour), base.Add(6 * time.Hour), true},
		{"overlapping head", base.Add(time.Hour), base.Add(3 * time.Hour), false},
		{"overlapping tail", base.Add(3 * time.Hour), base.Add(5 * time.Hour), false},
		{"contained", base.Add(2*time.Hour + 30*time.Minute), base.Add(3 * time.Hour), false},
		{"containing", base.Add(time.Hour), base.Add(5 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, tc.start, tc.end)
			assert.NoError(t, err)
			if tc.free {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestFindAvailableSlots_TerminalBookingsIgnored(t *testing.T) {
	f := newResolverFixture(t)
	slot := f.addSlot(t, 1, nil, slots.StatusAvailable)

	start, end := window(24, 2)
	f.addBooking(t, slot.ID, bookings.StatusCancelled, start, end)
	f.addBooking(t, slot.ID, bookings.StatusExpired, start, end)
	f.addBooking(t, slot.ID, bookings.StatusCompleted, start, end)

	result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)
	assert.NoError(t, err)
	assert.Len(t, result, 1, "terminal bookings do not block the window")
}

func TestFindAvailableSlots_MaintenanceExcluded(t *testing.T) {
	f := newResolverFixture(t)
	f.addSlot(t, 1, nil, slots.StatusMaintenance)
	f.addSlot(t, 2, nil, slots.StatusAvailable)

	start, end := window(24, 2)
	result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, 2, result[0].SlotNumber)
}

func TestFindAvailableSlots_VehicleTypeFilter(t *testing.T) {
	f := newResolverFixture(t)
	f.addSlot(t, 1, locations.VehicleTypes{locations.VehicleTypeMotorcycle}, slots.StatusAvailable)
	f.addSlot(t, 2, locations.VehicleTypes{locations.VehicleTypeCar}, slots.StatusAvailable)

	start, end := window(24, 2)
	result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, 2, result[0].SlotNumber)
}

func TestFindAvailableSlots_Validation(t *testing.T) {
	f := newResolverFixture(t)
	f.addSlot(t, 1, nil, slots.StatusAvailable)
	start, end := window(24, 2)

	_, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, end, start)
	assert.ErrorIs(t, err, slots.ErrInvalidWindow)

	_, err = f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, start)
	assert.ErrorIs(t, err, slots.ErrInvalidWindow)

	past := time.Now().UTC().Add(-2 * time.Hour)
	_, err = f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, past, past.Add(time.Hour))
	assert.ErrorIs(t, err, slots.ErrInvalidWindow)

	_, err = f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleType("hovercraft"), start, end)
	assert.ErrorIs(t, err, slots.ErrUnsupportedVehicleType)

	// Supported globally but not by this location
	_, err = f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeTruck, start, end)
	assert.ErrorIs(t, err, slots.ErrUnsupportedVehicleType)
}

func TestFindAvailableSlots_InactiveLocation(t *testing.T) {
	f := newResolverFixture(t)
	f.addSlot(t, 1, nil, slots.StatusAvailable)
	assert.NoError(t, f.db.Model(&locations.Location{}).Where("id = ?", f.location.ID).Update("active", false).Error)

	start, end := window(24, 2)
	_, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)
	assert.ErrorIs(t, err, locations.ErrLocationInactive)
}

func TestFindAvailableSlotsExcluding_IgnoresOwnBooking(t *testing.T) {
	f := newResolverFixture(t)
	slot := f.addSlot(t, 1, nil, slots.StatusAvailable)

	start, end := window(24, 2)
	own := f.addBooking(t, slot.ID, bookings.StatusPending, start, end)

	// Without exclusion the slot is taken
	result, err := f.service.FindAvailableSlots(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end)
	assert.NoError(t, err)
	assert.Empty(t, result)

	// Excluding the booking frees its own window
	result, err = f.service.FindAvailableSlotsExcluding(context.Background(), f.location.ID, locations.VehicleTypeCar, start, end, own.ID)
	assert.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestSetMaintenance_RefusesHeldSlot(t *testing.T) {
	f := newResolverFixture(t)
	slot := f.addSlot(t, 1, nil, slots.StatusReserved)

	err := f.service.SetMaintenance(context.Background(), slot.ID, true)
	assert.Error(t, err)
}
