package matches

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

// CreateMatch handles POST /matches (authenticated)
func (c *Controller) CreateMatch(ctx *gin.Context) {
	organizerID := middleware.UserIDFromContext(ctx)
	if organizerID == nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "authentication required", nil, nil)
		return
	}

	var req CreateMatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	match, err := c.service.CreateMatch(ctx.Request.Context(), *organizerID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "match created", match, nil)
}

// ListOpenMatches handles GET /matches?date=
func (c *Controller) ListOpenMatches(ctx *gin.Context) {
	matches, err := c.service.ListOpenMatches(ctx.Request.Context(), ctx.Query("date"))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "matches retrieved", matches, nil)
}

// GetMatch handles GET /matches/:id
func (c *Controller) GetMatch(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid match id", nil, nil)
		return
	}

	match, err := c.service.GetMatch(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "match retrieved", match, nil)
}

// JoinMatch handles POST /matches/:id/join
func (c *Controller) JoinMatch(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid match id", nil, nil)
		return
	}

	var req JoinMatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	userID := middleware.UserIDFromContext(ctx)
	join, err := c.service.JoinMatch(ctx.Request.Context(), id, userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "seat held, awaiting payment", join, nil)
}

// CancelMatch handles POST /matches/:id/cancel (organizer only)
func (c *Controller) CancelMatch(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid match id", nil, nil)
		return
	}

	organizerID := middleware.UserIDFromContext(ctx)
	if organizerID == nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "authentication required", nil, nil)
		return
	}

	if err := c.service.CancelMatch(ctx.Request.Context(), id, *organizerID); err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "match cancelled", nil, nil)
}
