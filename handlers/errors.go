package handlers

import (
	"errors"
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	var fields services.FieldErrors
	var minOrder *services.MinOrderError
	switch {
	case errors.As(err, &fields),
		errors.Is(err, services.ErrUnknownTool),
		errors.Is(err, services.ErrInvalidToolArgs):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrUpcomingNotFound),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrNoCatalogMatch):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateItem),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrCheckoutBusy),
		errors.Is(err, services.ErrAlreadySpun),
		errors.Is(err, services.ErrLootAlreadyClaimed):
		return http.StatusConflict
	case errors.As(err, &minOrder),
		errors.Is(err, services.ErrCouponNotFound),
		errors.Is(err, services.ErrInvalidRechargeCode),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrAssistantFailed),
		errors.Is(err, services.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	var fields services.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
