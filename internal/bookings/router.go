package bookings

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller *Controller) {
	bookingRoutes := router.Group("/bookings")
	{
		// Reservation and cancellation accept guests; auth is optional and
		// only attaches ownership when a token is present
		bookingRoutes.POST("", middleware.OptionalAuth(), controller.ReserveSlot)
		bookingRoutes.GET("/:id", middleware.OptionalAuth(), controller.GetBooking)
		bookingRoutes.POST("/:id/pay", middleware.OptionalAuth(), controller.RetryPayment)
		bookingRoutes.POST("/:id/cancel", middleware.OptionalAuth(), controller.CancelBooking)

		// Listing needs a real account
		bookingRoutes.GET("", middleware.JWTAuth(), controller.GetMyBookings)
	}
}
