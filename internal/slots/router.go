package slots

import (
	"parkwise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupSlotRoutes configures all slot-related routes
func SetupSlotRoutes(rg *gin.RouterGroup, controller *Controller) {
	slots := rg.Group("/slots")
	{
		admin := slots.Group("")
		admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
		{
			admin.POST("", controller.CreateSlot)
			admin.PATCH("/:id/maintenance", controller.SetMaintenance)
		}
	}

	// Availability reads hang off the location resource
	locationGroup := rg.Group("/locations")
	{
		locationGroup.GET("/:id/slots", controller.ListSlots)
		locationGroup.GET("/:id/availability", controller.GetAvailability)
	}
}
