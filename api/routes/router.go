// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"courtside/internal/auth"
	"courtside/internal/bookings"
	"courtside/internal/courts"
	"courtside/internal/locks"
	"courtside/internal/matches"
	"courtside/internal/notifications"
	"courtside/internal/payments"
	"courtside/internal/shared/config"
	"courtside/internal/shared/database"
	"courtside/pkg/cache"
	"courtside/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	log    *logger.Logger

	lockManager    *locks.Manager
	courtService   courts.Service
	paymentService payments.Service
	producer       notifications.EventProducer
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, lockManager *locks.Manager, log *logger.Logger) *Router {
	return &Router{
		config:      cfg,
		db:          db,
		log:         log,
		lockManager: lockManager,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Courts before bookings: the reservation flow quotes against the
		// court service
		r.setupCourtRoutes(api)

		// Payments before bookings and matches: both register settlement
		// hooks on the payment service
		r.setupPaymentRoutes(api)
		r.setupBookingRoutes(api)
		r.setupMatchRoutes(api)
	}
}

// PaymentService exposes the wired payment service so the caller can attach
// the expiry scheduler to it
func (r *Router) PaymentService() payments.Service {
	return r.paymentService
}

// EventProducer exposes the Kafka producer for shutdown, nil when disabled
func (r *Router) EventProducer() notifications.EventProducer {
	return r.producer
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "courtside-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "courtside-backend",
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

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupCourtRoutes configures the court catalog and availability routes
func (r *Router) setupCourtRoutes(rg *gin.RouterGroup) {
	cacheService := cache.NewService(r.db.GetRedisClient())

	courtRepo := courts.NewRepository(r.db.GetPostgreSQL())
	r.courtService = courts.NewService(courtRepo, cacheService, r.config.Redis.AvailabilityCacheTTL)
	courtController := courts.NewController(r.courtService)

	courts.SetupCourtRoutes(rg, courtController)
}

// setupPaymentRoutes configures the payment settlement routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	gateway := payments.NewZaloPayGateway(r.config.ZaloPay)
	notifier := payments.NewNotifier(r.log)

	paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())
	r.paymentService = payments.NewService(paymentRepo, gateway, notifier, r.log)

	if r.config.Kafka.Enabled {
		producerConfig := notifications.DefaultProducerConfig(r.config.Kafka.Brokers, r.config.Kafka.Topic)
		producer, err := notifications.NewKafkaEventProducer(producerConfig, r.log)
		if err != nil {
			// Event publishing is best effort; the API works without it
			r.log.Error("failed to create kafka producer, events disabled", "error", err.Error())
		} else {
			r.producer = producer
			r.paymentService.SetEventPublisher(producer)
		}
	}

	paymentController := payments.NewController(r.paymentService)
	payments.SetupPaymentRoutes(rg, paymentController)
}

// setupBookingRoutes configures the reservation routes and registers the
// booking side of payment settlement
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, r.courtService, r.paymentService, r.lockManager, r.log)

	// Payment success/failure flows back into bookings through this hook
	r.paymentService.SetBookingSettlement(bookingService)

	bookingController := bookings.NewController(bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupMatchRoutes configures the organized match routes and registers the
// match side of payment settlement
func (r *Router) setupMatchRoutes(rg *gin.RouterGroup) {
	matchRepo := matches.NewRepository(r.db.GetPostgreSQL())
	matchService := matches.NewService(matchRepo, r.paymentService, r.log)

	r.paymentService.SetMatchSettlement(matchService)

	matchController := matches.NewController(matchService)
	matches.SetupMatchRoutes(rg, matchController)
}
