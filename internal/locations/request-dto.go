package locations

type CreateLocationRequest struct {
	Name                  string   `json:"name" binding:"required"`
	Latitude              float64  `json:"latitude"`
	Longitude             float64  `json:"longitude"`
	HourlyRate            float64  `json:"hourly_rate" binding:"required,gt=0"`
	TotalCapacity         int      `json:"total_capacity" binding:"required,gt=0"`
	SupportedVehicleTypes []string `json:"supported_vehicle_types" binding:"required,min=1"`
	RoundUpHours          bool     `json:"round_up_hours"`
}

type UpdateRateRequest struct {
	HourlyRate float64 `json:"hourly_rate" binding:"required,gt=0"`
}

type UpdateCapacityRequest struct {
	TotalCapacity int `json:"total_capacity" binding:"required,gte=0"`
}
