// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"pipeline_forecast_backend/platform/apperr"
	"pipeline_forecast_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "internal error"

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details, RequestID: c.GetString(ContextRequestIDKey)})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind to pick the status code.
// Anything else is a dependency failure: it is logged and reported as a 500
// without leaking the underlying message.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, log *logger.Logger, err error) bool {
	if err == nil {
		return false
	}

	requestID := c.GetString(ContextRequestIDKey)

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status >= http.StatusInternalServerError && log != nil {
			log.HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
		}
		c.JSON(status, ErrorResponse{
			Error:     domainErr.Message,
			Details:   domainErr.Details,
			RequestID: requestID,
		})
		return true
	}

	if log != nil {
		log.HTTPError(c.Request.Method, c.Request.URL.Path, http.StatusInternalServerError, err, c.ClientIP())
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalError, RequestID: requestID})
	return true
}
