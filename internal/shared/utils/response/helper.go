package response

import (
	"courtside/internal/shared/utils/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps an error to its HTTP status via the error kind and
// writes the standard envelope
func RespondError(c *gin.Context, err error) {
	code := apperror.HTTPStatus(err)
	RespondJSON(c, "error", code, err.Error(), nil, nil)
}
