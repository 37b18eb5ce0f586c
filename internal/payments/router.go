package payments

import (
	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(router *gin.RouterGroup, controller *Controller) {
	paymentRoutes := router.Group("/payments")
	{
		// Gateway callback is authenticated by its mac, not by a session
		paymentRoutes.POST("/callback", controller.HandleCallback)

		// Status and cancellation are reachable by guests too; the payment id
		// is an unguessable capability
		paymentRoutes.GET("/:id/status", controller.GetStatus)
		paymentRoutes.POST("/:id/cancel", controller.CancelPayment)
		paymentRoutes.GET("/:id/events", controller.StreamEvents)
	}
}
