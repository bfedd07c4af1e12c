package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storydive/internal/models"
)

// APIError is the standard error response body.
type APIError struct {
	Message string `json:"message"`
}

// handleServiceError maps service sentinels to HTTP statuses. Unknown
// errors become opaque 500s; the detail stays in the log.
func handleServiceError(c *gin.Context, err error, log *zap.Logger) {
	var status int
	switch {
	case errors.Is(err, models.ErrValidationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrWorldNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, models.ErrGenerationFailed):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Unhandled service error", zap.Error(err))
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, APIError{Message: message})
}
