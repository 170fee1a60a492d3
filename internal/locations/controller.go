package locations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkwise/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateLocation handles POST /api/v1/locations
func (c *Controller) CreateLocation(ctx *gin.Context) {
	var req CreateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	location, err := c.service.CreateLocation(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create location", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Location created successfully", location, nil)
}

// GetLocation handles GET /api/v1/locations/:id
func (c *Controller) GetLocation(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	location, err := c.service.GetLocation(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Location not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get location", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Location retrieved successfully", location, nil)
}

// ListLocations handles GET /api/v1/locations
func (c *Controller) ListLocations(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	result, total, err := c.service.ListLocations(ctx.Request.Context(), page, limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list locations", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Locations retrieved successfully", gin.H{
		"locations": result,
		"total":     total,
		"page":      page,
		"limit":     limit,
	}, nil)
}

// UpdateRate handles PATCH /api/v1/locations/:id/rate
// Existing bookings keep their snapshotted rate.
func (c *Controller) UpdateRate(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	var req UpdateRateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.UpdateHourlyRate(ctx.Request.Context(), id, req.HourlyRate); err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Location not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to update rate", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Hourly rate updated successfully", nil, nil)
}

// UpdateCapacity handles PATCH /api/v1/locations/:id/capacity
func (c *Controller) UpdateCapacity(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	var req UpdateCapacityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.service.UpdateCapacity(ctx.Request.Context(), id, req.TotalCapacity); err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Location not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to update capacity", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Capacity updated successfully", nil, nil)
}

// DeactivateLocation handles DELETE /api/v1/locations/:id
func (c *Controller) DeactivateLocation(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	if err := c.service.DeactivateLocation(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Location not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to deactivate location", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Location deactivated successfully", nil, nil)
}
