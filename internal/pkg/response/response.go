package response

import (
	"net/http"

	"clinicbook/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON answer.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}

// BindError answers 400 for a body that did not bind. Validation failures
// carry a field -> rule map, anything else the decoder message.
func BindError(c *gin.Context, err error) {
	body := &ErrorBody{Code: "VALIDATION_ERROR", Message: "Invalid request body"}
	if fields, other := validator.FieldErrors(err); other != nil {
		body.Details = other.Error()
	} else {
		body.Details = fields
	}
	c.JSON(http.StatusBadRequest, Envelope{Error: body})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}
