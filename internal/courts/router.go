package courts

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCourtRoutes(router *gin.RouterGroup, controller *Controller) {
	// Public routes - anyone can browse the catalog and poll availability
	publicCourts := router.Group("/courts")
	{
		publicCourts.GET("", controller.ListCourts)    // GET /api/v1/courts
		publicCourts.GET("/:id", controller.GetCourt)  // GET /api/v1/courts/:id
	}

	publicSubCourts := router.Group("/sub-courts")
	{
		publicSubCourts.GET("/:id/availability", controller.GetDayAvailability) // GET /api/v1/sub-courts/:id/availability?date=
	}

	// Admin routes - catalog management
	adminCourts := router.Group("/admin/courts")
	adminCourts.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminCourts.POST("", controller.CreateCourt)                      // POST /api/v1/admin/courts
		adminCourts.POST("/:id/sub-courts", controller.CreateSubCourt)    // POST /api/v1/admin/courts/:id/sub-courts
		adminCourts.POST("/:id/pricing-rules", controller.CreatePricingRule) // POST /api/v1/admin/courts/:id/pricing-rules
	}

	adminSubCourts := router.Group("/admin/sub-courts")
	adminSubCourts.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminSubCourts.POST("/:id/closures", controller.CreateClosure) // POST /api/v1/admin/sub-courts/:id/closures
	}

	adminHolidays := router.Group("/admin/holidays")
	adminHolidays.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminHolidays.POST("", controller.CreateHoliday) // POST /api/v1/admin/holidays
	}
}
