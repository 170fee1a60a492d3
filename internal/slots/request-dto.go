package slots

import "github.com/google/uuid"

type CreateSlotRequest struct {
	LocationID   uuid.UUID `json:"location_id" binding:"required"`
	SlotNumber   int       `json:"slot_number" binding:"required,gt=0"`
	VehicleTypes []string  `json:"vehicle_types" binding:"required,min=1"`
}

type MaintenanceRequest struct {
	Maintenance *bool `json:"maintenance" binding:"required"`
}

type AvailabilityQuery struct {
	VehicleType string `form:"vehicle_type" binding:"required"`
	Start       string `form:"start" binding:"required"`
	End         string `form:"end" binding:"required"`
}

type AvailabilityResponse struct {
	Slots []Slot `json:"slots"`
	Count int    `json:"count"`
}
