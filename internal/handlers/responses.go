package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/technofair/registration-backend/internal/services"
)

// ErrorResponse is the standard error body for all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse is the standard body for operations with no payload
type SuccessResponse struct {
	Message string `json:"message"`
}

// statusForKind maps workflow error kinds to HTTP status codes. Clients key
// off the kind in the body, not the status code.
var statusForKind = map[services.ErrorKind]int{
	services.ErrDuplicateRegistration: http.StatusConflict,
	services.ErrRegistrationClosed:    http.StatusUnprocessableEntity,
	services.ErrInvalidTransition:     http.StatusConflict,
	services.ErrPhaseNotOpen:          http.StatusUnprocessableEntity,
	services.ErrValidation:            http.StatusBadRequest,
	services.ErrForbidden:             http.StatusForbidden,
	services.ErrRateLimited:           http.StatusTooManyRequests,
	services.ErrNotFound:              http.StatusNotFound,
}

// respondError writes a workflow error with its mapped status, or a generic
// 500 for unexpected errors so internals never leak to clients
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong. Please try again later.",
		})
		return
	}

	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Error:   string(kind),
		Message: err.Error(),
	})
}

// respondBindError writes a 400 for malformed request bodies
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request body: " + err.Error(),
	})
}
