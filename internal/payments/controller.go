package payments

import (
	"io"
	"net/http"

	"courtside/internal/shared/utils/apperror"
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

// callbackAck is the acknowledgement body the gateway expects. Anything but
// return_code 1 makes the gateway retry the callback later.
type callbackAck struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

// HandleCallback handles POST /payments/callback from the gateway
func (c *Controller) HandleCallback(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusOK, callbackAck{ReturnCode: 0, ReturnMessage: "unreadable body"})
		return
	}

	if err := c.service.ApplyCallback(ctx.Request.Context(), body); err != nil {
		// A rejected mac or unknown transaction will never succeed on retry
		if apperror.IsKind(err, apperror.KindUpstreamRejected) ||
			apperror.IsKind(err, apperror.KindValidation) ||
			apperror.IsKind(err, apperror.KindNotFound) {
			ctx.JSON(http.StatusOK, callbackAck{ReturnCode: 2, ReturnMessage: err.Error()})
			return
		}
		if apperror.IsKind(err, apperror.KindConflict) {
			// Settled with a different outcome already; retrying cannot help
			ctx.JSON(http.StatusOK, callbackAck{ReturnCode: 2, ReturnMessage: err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, callbackAck{ReturnCode: 0, ReturnMessage: "temporary failure, retry"})
		return
	}

	ctx.JSON(http.StatusOK, callbackAck{ReturnCode: 1, ReturnMessage: "success"})
}

// GetStatus handles GET /payments/:id/status
func (c *Controller) GetStatus(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid payment id", nil, nil)
		return
	}

	status, err := c.service.GetStatus(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "payment status retrieved", status, nil)
}

// CancelPayment handles POST /payments/:id/cancel
func (c *Controller) CancelPayment(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid payment id", nil, nil)
		return
	}

	if err := c.service.CancelPayment(ctx.Request.Context(), id); err != nil {
		response.RespondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "payment cancelled", nil, nil)
}

// StreamEvents handles GET /payments/:id/events as a server-sent event
// stream. The stream ends once the payment reaches a terminal state or the
// client disconnects.
func (c *Controller) StreamEvents(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid payment id", nil, nil)
		return
	}

	// Send the current state up front so a subscriber that arrived after the
	// transition does not wait forever
	current, err := c.service.GetStatus(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	notifier := c.service.Notifier()
	events := notifier.Subscribe(id.String())
	defer notifier.Unsubscribe(id.String(), events)

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	ctx.SSEvent("status", current)
	ctx.Writer.Flush()
	if Status(current.Status).IsTerminal() {
		return
	}

	clientGone := ctx.Request.Context().Done()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			ctx.SSEvent("status", event)
			ctx.Writer.Flush()
			if Status(event.Status).IsTerminal() {
				return
			}
		case <-clientGone:
			return
		}
	}
}
