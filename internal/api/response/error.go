package response

import (
	"ctchen222/bookshelf/internal/api/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusOf maps a service error kind to its HTTP status.
func StatusOf(err error) int {
	switch kind := service.KindOf(err); {
	case errors.Is(kind, service.ErrValidation), errors.Is(kind, service.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(kind, service.ErrInsufficientBalance):
		return http.StatusForbidden
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status of its kind.
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, StatusOf(err), err)
}

// ErrorWithStatus writes the caller-safe message of err with code. Server
// errors are logged with their cause.
func ErrorWithStatus(c *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	ErrorResponse(c, code, service.PublicMessage(err))
}
