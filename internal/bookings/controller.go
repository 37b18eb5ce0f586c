package bookings

import (
	"net/http"

	"courtside/internal/shared/middleware"
	"courtside/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ReserveSlot handles POST /bookings. Works for both authenticated users and
// guests; guests must supply contact details in the body.
func (c *Controller) ReserveSlot(ctx *gin.Context) {
	var req ReserveSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	reservation, err := c.service.ReserveSlot(ctx.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "slot reserved, awaiting payment", reservation, nil)
}

// GetBooking handles GET /bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "booking retrieved", booking, nil)
}

// GetMyBookings handles GET /bookings (authenticated)
func (c *Controller) GetMyBookings(ctx *gin.Context) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "authentication required", nil, nil)
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid query parameters", nil, err.Error())
		return
	}

	bookings, pagination, err := c.service.GetUserBookings(ctx.Request.Context(), *userID, query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "bookings retrieved", gin.H{
		"bookings":   bookings,
		"pagination": pagination,
	}, nil)
}

// RetryPayment handles POST /bookings/:id/pay for pending bookings whose
// earlier payment attempt did not settle
func (c *Controller) RetryPayment(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	reservation, err := c.service.RetryPayment(ctx.Request.Context(), id, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "payment attempt created", reservation, nil)
}

// CancelBooking handles POST /bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	if err := c.service.CancelBooking(ctx.Request.Context(), id, userID); err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "booking cancelled", nil, nil)
}
