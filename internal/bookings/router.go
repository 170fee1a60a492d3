package bookings

import (
	"github.com/gin-gonic/gin"

	"parkwise/internal/shared/middleware"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Quotes are priced availability reads, no auth required
	rg.GET("/locations/:id/quote", controller.Quote)

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.POST("", controller.CreateBooking)
		bookings.GET("", controller.ListMyBookings)
		bookings.GET("/:id", controller.GetBooking)
		bookings.PATCH("/:id", controller.UpdateBooking)
		bookings.POST("/:id/pay", controller.Pay)
		bookings.POST("/:id/cancel", controller.CancelBooking)
		bookings.POST("/:id/extend", controller.ExtendBooking)
	}
}
