// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkwise/internal/bookings"
	"parkwise/internal/locations"
	"parkwise/internal/notifications"
	"parkwise/internal/shared/config"
	"parkwise/internal/shared/database"
	"parkwise/internal/slots"
	"parkwise/pkg/cache"
	"parkwise/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher
	logger    *logger.Logger

	// bookingService is exposed so main can hand it to the sweeper and
	// the Kafka event consumer.
	bookingService bookings.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
		logger:    log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		cacheService := cache.NewService(r.db.GetRedisClient())

		// Locations are the leaf dependency; slots resolve against them,
		// bookings claim slots.
		locationRepo := locations.NewRepository(r.db.GetPostgreSQL())
		locationService := locations.NewService(locationRepo)
		locationController := locations.NewController(locationService)
		locations.SetupLocationRoutes(api, locationController)

		slotRepo := slots.NewRepository(r.db.GetPostgreSQL())
		slotService := slots.NewService(slotRepo, locationService, cacheService)
		slotController := slots.NewController(slotService)
		slots.SetupSlotRoutes(api, slotController)

		bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
		r.bookingService = bookings.NewService(bookingRepo, slotService, locationService, r.publisher, r.logger, r.config.Booking)
		bookingController := bookings.NewController(r.bookingService)
		bookings.SetupBookingRoutes(api, bookingController)
	}
}

// BookingService returns the wired booking service. Valid after SetupRoutes.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "parkwise-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "parkwise-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
