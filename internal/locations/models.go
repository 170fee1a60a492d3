package locations

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleType identifies a class of vehicle a slot or location can serve.
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeVan        VehicleType = "van"
)

// IsValid checks if the vehicle type is one of the known kinds
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck, VehicleTypeVan:
		return true
	}
	return false
}

func (v VehicleType) String() string {
	return string(v)
}

// VehicleTypes is a set of vehicle types stored as comma-separated text.
type VehicleTypes []VehicleType

// Contains reports whether t is in the set.
func (vt VehicleTypes) Contains(t VehicleType) bool {
	for _, v := range vt {
		if v == t {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer for database storage
func (vt VehicleTypes) Value() (driver.Value, error) {
	parts := make([]string, 0, len(vt))
	for _, v := range vt {
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner
func (vt *VehicleTypes) Scan(value interface{}) error {
	if value == nil {
		*vt = nil
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported type for VehicleTypes: %T", value)
	}

	if raw == "" {
		*vt = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make(VehicleTypes, 0, len(parts))
	for _, p := range parts {
		result = append(result, VehicleType(strings.TrimSpace(p)))
	}
	*vt = result
	return nil
}

// Location defines a parking location (a physical lot)
type Location struct {
	ID                    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name                  string       `gorm:"not null" json:"name"`
	Latitude              float64      `json:"latitude"`
	Longitude             float64      `json:"longitude"`
	HourlyRate            float64      `gorm:"not null" json:"hourly_rate"`
	TotalCapacity         int          `gorm:"not null" json:"total_capacity"`
	SupportedVehicleTypes VehicleTypes `gorm:"type:text;not null" json:"supported_vehicle_types"`

	// RoundUpHours switches pricing from exact fractional hours to
	// rounding the duration up to the next full hour.
	RoundUpHours bool `gorm:"default:false" json:"round_up_hours"`

	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Location
func (Location) TableName() string {
	return "locations"
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Supports reports whether the location accepts the given vehicle type.
func (l *Location) Supports(t VehicleType) bool {
	return l.SupportedVehicleTypes.Contains(t)
}
