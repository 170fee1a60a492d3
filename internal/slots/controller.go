package slots

import (
	"errors"
	"net/http"
	"time"

	"parkwise/internal/locations"
	"parkwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateSlot handles POST /api/v1/slots
func (c *Controller) CreateSlot(ctx *gin.Context) {
	var req CreateSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	slot, err := c.service.CreateSlot(ctx.Request.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, locations.ErrLocationNotFound) {
			status = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", status, "Failed to create slot", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Slot created successfully", slot, nil)
}

// ListSlots handles GET /api/v1/locations/:id/slots
func (c *Controller) ListSlots(ctx *gin.Context) {
	locationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	result, err := c.service.ListSlots(ctx.Request.Context(), locationID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list slots", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slots retrieved successfully", result, nil)
}

// GetAvailability handles GET /api/v1/locations/:id/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	locationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	var query AvailabilityQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, query.Start)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "start must be RFC3339", nil, err.Error())
		return
	}
	end, err := time.Parse(time.RFC3339, query.End)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "end must be RFC3339", nil, err.Error())
		return
	}

	result, err := c.service.FindAvailableSlots(ctx.Request.Context(), locationID, locations.VehicleType(query.VehicleType), start, end)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, locations.ErrLocationNotFound) {
			status = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", status, "Failed to resolve availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability resolved successfully", AvailabilityResponse{
		Slots: result,
		Count: len(result),
	}, nil)
}

// SetMaintenance handles PATCH /api/v1/slots/:id/maintenance
func (c *Controller) SetMaintenance(ctx *gin.Context) {
	slotID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot ID", nil, err.Error())
		return
	}

	var req MaintenanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.SetMaintenance(ctx.Request.Context(), slotID, *req.Maintenance); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrSlotNotFound) {
			status = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", status, "Failed to update slot", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slot updated successfully", nil, nil)
}
