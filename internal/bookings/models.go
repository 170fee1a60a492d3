package bookings

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parkwise/internal/locations"
)

type Booking struct {
	ID            uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	BookingRef    string                `json:"booking_ref" gorm:"type:varchar(20);uniqueIndex;not null"`
	UserID        uuid.UUID             `json:"user_id" gorm:"type:uuid;not null;index"`
	VehicleID     uuid.UUID             `json:"vehicle_id" gorm:"type:uuid;not null"`
	VehicleType   locations.VehicleType `json:"vehicle_type" gorm:"type:varchar(20);not null"`
	LocationID    uuid.UUID             `json:"location_id" gorm:"type:uuid;not null;index"`
	SlotID        uuid.UUID             `json:"slot_id" gorm:"type:uuid;not null;index"`
	StartTime     time.Time             `json:"start_time" gorm:"not null"`
	EndTime       time.Time             `json:"end_time" gorm:"not null"`
	DurationHours float64               `json:"duration_hours" gorm:"not null"`
	// HourlyRate is snapshotted at creation; later rate changes on the
	// location never alter an existing booking's price.
	HourlyRate    float64       `json:"hourly_rate" gorm:"not null"`
	TotalAmount   float64       `json:"total_amount" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	Status        Status        `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'UNPAID'"`
	// Version guards every status write; a stale writer loses the race
	// instead of clobbering a concurrent transition.
	Version     int64      `json:"-" gorm:"not null;default:1"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	EnteredAt   *time.Time `json:"entered_at,omitempty"`
	ExitedAt    *time.Time `json:"exited_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:BookingID"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.BookingRef == "" {
		b.BookingRef = GenerateBookingRef()
	}
	return nil
}

// Payment records a single gateway attempt against a booking. A booking may
// accumulate several failed attempts but at most one completed one.
type Payment struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	Amount        float64   `json:"amount" gorm:"not null"`
	Currency      string    `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	Status        string    `json:"status" gorm:"type:varchar(20);not null"`
	Gateway       string    `json:"gateway" gorm:"type:varchar(50)"`
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(100)"`
	FailureReason string    `json:"failure_reason,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

const (
	PaymentAttemptCompleted = "COMPLETED"
	PaymentAttemptFailed    = "FAILED"
)

const refCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateBookingRef returns a human-readable reference like PRK-20260901-K7M2QX.
func GenerateBookingRef() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = refCharset[rand.Intn(len(refCharset))]
	}
	return fmt.Sprintf("PRK-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
