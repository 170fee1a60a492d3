package locations

import (
	"parkwise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupLocationRoutes configures all location-related routes
func SetupLocationRoutes(rg *gin.RouterGroup, controller *Controller) {
	locations := rg.Group("/locations")
	{
		// Public reads
		locations.GET("", controller.ListLocations)
		locations.GET("/:id", controller.GetLocation)

		// Admin-only writes. Rate edits never rewrite existing bookings.
		admin := locations.Group("")
		admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
		{
			admin.POST("", controller.CreateLocation)
			admin.PATCH("/:id/rate", controller.UpdateRate)
			admin.PATCH("/:id/capacity", controller.UpdateCapacity)
			admin.DELETE("/:id", controller.DeactivateLocation)
		}
	}
}
