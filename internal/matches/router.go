package matches

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupMatchRoutes(router *gin.RouterGroup, controller *Controller) {
	matchRoutes := router.Group("/matches")
	{
		matchRoutes.GET("", controller.ListOpenMatches)
		matchRoutes.GET("/:id", controller.GetMatch)

		// Joining is open to guests; creating and cancelling need an account
		matchRoutes.POST("/:id/join", middleware.OptionalAuth(), controller.JoinMatch)
		matchRoutes.POST("", middleware.JWTAuth(), controller.CreateMatch)
		matchRoutes.POST("/:id/cancel", middleware.JWTAuth(), controller.CancelMatch)
	}
}
