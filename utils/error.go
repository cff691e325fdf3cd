package utils

import (
	"errors"
	"net/http"

	"arctech/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// StatusForError maps the appointment error taxonomy onto HTTP statuses.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AppErrorJSON responds with the status and code derived from err.
func AppErrorJSON(c *gin.Context, message string, err error) {
	status := StatusForError(err)
	resp := ErrorResponse{Message: message, Details: err.Error()}
	if code, ok := models.ErrorCodeOf(err); ok {
		resp.Code = string(code)
	}
	if status >= http.StatusInternalServerError {
		GetLogger().Error(message, zap.Error(err))
	} else {
		GetLogger().Warn(message, zap.Error(err))
	}
	c.JSON(status, resp)
}
