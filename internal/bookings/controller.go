package bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"parkwise/internal/locations"
	"parkwise/internal/shared/middleware"
	"parkwise/internal/shared/utils/response"
	"parkwise/internal/slots"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Quote handles GET /api/v1/locations/:id/quote
func (c *Controller) Quote(ctx *gin.Context) {
	locationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return
	}

	var req QuoteRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "start_time must be RFC3339", nil, err.Error())
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "end_time must be RFC3339", nil, err.Error())
		return
	}

	quote, err := c.service.Quote(ctx.Request.Context(), locationID, locations.VehicleType(req.VehicleType), start, end)
	if err != nil {
		respondBookingError(ctx, err, "Failed to compute quote")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Quote computed successfully", quote, nil)
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), userID, req)
	if err != nil {
		respondBookingError(ctx, err, "Failed to create booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID, userID, isAdmin(ctx))
	if err != nil {
		respondBookingError(ctx, err, "Failed to fetch booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListMyBookings handles GET /api/v1/bookings
func (c *Controller) ListMyBookings(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	bookings, total, err := c.service.ListUserBookings(ctx.Request.Context(), userID, page, limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list bookings", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", BookingListResponse{
		Bookings:   bookings,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil)
}

// Pay handles POST /api/v1/bookings/:id/pay. It is a mock gateway for local
// use: it records a successful payment attempt and confirms the booking, the
// same path a real gateway event takes through the Kafka consumer.
func (c *Controller) Pay(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID, userID, isAdmin(ctx))
	if err != nil {
		respondBookingError(ctx, err, "Failed to fetch booking")
		return
	}

	transactionID := "mock-" + uuid.New().String()
	if err := c.service.HandlePaymentResult(ctx.Request.Context(), booking.ID, true,
		booking.TotalAmount, "mock", transactionID, ""); err != nil {
		respondBookingError(ctx, err, "Failed to process payment")
		return
	}

	booking, err = c.service.GetBooking(ctx.Request.Context(), bookingID, userID, isAdmin(ctx))
	if err != nil {
		respondBookingError(ctx, err, "Failed to fetch booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment processed successfully", booking, nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req CancelBookingRequest
	_ = ctx.ShouldBindJSON(&req) // reason is optional

	booking, err := c.service.CancelBooking(ctx.Request.Context(), bookingID, userID, isAdmin(ctx), req.Reason)
	if err != nil {
		respondBookingError(ctx, err, "Failed to cancel booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

// UpdateBooking handles PATCH /api/v1/bookings/:id
func (c *Controller) UpdateBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req UpdateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.UpdateBookingWindow(ctx.Request.Context(), bookingID, userID, isAdmin(ctx), req.StartTime, req.EndTime)
	if err != nil {
		respondBookingError(ctx, err, "Failed to update booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking updated successfully", booking, nil)
}

// ExtendBooking handles POST /api/v1/bookings/:id/extend
func (c *Controller) ExtendBooking(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req ExtendBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := c.service.ExtendBooking(ctx.Request.Context(), bookingID, userID, isAdmin(ctx), req.AdditionalHours)
	if err != nil {
		respondBookingError(ctx, err, "Failed to extend booking")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking extended successfully", booking, nil)
}

// respondBookingError maps domain errors onto HTTP status codes.
func respondBookingError(ctx *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, locations.ErrLocationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, slots.ErrInvalidWindow), errors.Is(err, slots.ErrUnsupportedVehicleType),
		errors.Is(err, locations.ErrLocationInactive):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNoSlotAvailable), errors.Is(err, ErrExtensionConflict),
		errors.Is(err, ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, ErrBookingNotModifiable), errors.Is(err, ErrAlreadyTerminal):
		status = http.StatusUnprocessableEntity
	}

	response.RespondJSON(ctx, "error", status, fallback, nil, err.Error())
}

func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func isAdmin(ctx *gin.Context) bool {
	role, exists := ctx.Get("user_role")
	if !exists {
		return false
	}
	str, ok := role.(string)
	return ok && str == middleware.RoleAdmin
}
