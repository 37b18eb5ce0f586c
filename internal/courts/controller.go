package courts

import (
	"net/http"

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

// ListCourts handles GET /courts
func (c *Controller) ListCourts(ctx *gin.Context) {
	courts, err := c.service.ListCourts(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "courts retrieved", courts, nil)
}

// GetCourt handles GET /courts/:id
func (c *Controller) GetCourt(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid court id", nil, nil)
		return
	}

	court, err := c.service.GetCourt(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "court retrieved", court, nil)
}

// CreateCourt handles POST /courts (admin)
func (c *Controller) CreateCourt(ctx *gin.Context) {
	var req CreateCourtRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	court, err := c.service.CreateCourt(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "court created", court, nil)
}

// CreateSubCourt handles POST /courts/:id/sub-courts (admin)
func (c *Controller) CreateSubCourt(ctx *gin.Context) {
	courtID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid court id", nil, nil)
		return
	}

	var req CreateSubCourtRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	subCourt, err := c.service.CreateSubCourt(ctx.Request.Context(), courtID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "sub-court created", subCourt, nil)
}

// CreatePricingRule handles POST /courts/:id/pricing-rules (admin)
func (c *Controller) CreatePricingRule(ctx *gin.Context) {
	courtID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid court id", nil, nil)
		return
	}

	var req CreatePricingRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	rule, err := c.service.CreatePricingRule(ctx.Request.Context(), courtID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "pricing rule created", rule, nil)
}

// CreateClosure handles POST /sub-courts/:id/closures (admin)
func (c *Controller) CreateClosure(ctx *gin.Context) {
	subCourtID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid sub-court id", nil, nil)
		return
	}

	var req CreateClosureRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	closure, err := c.service.CreateClosure(ctx.Request.Context(), subCourtID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "closure created", closure, nil)
}

// CreateHoliday handles POST /holidays (admin)
func (c *Controller) CreateHoliday(ctx *gin.Context) {
	var req CreateHolidayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	holiday, err := c.service.CreateHoliday(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "holiday created", holiday, nil)
}

// GetDayAvailability handles GET /sub-courts/:id/availability?date=2006-01-02
func (c *Controller) GetDayAvailability(ctx *gin.Context) {
	subCourtID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid sub-court id", nil, nil)
		return
	}

	date := ctx.Query("date")
	if date == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "date query parameter is required", nil, nil)
		return
	}

	availability, err := c.service.GetDayAvailability(ctx.Request.Context(), subCourtID, date)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "availability retrieved", availability, nil)
}
