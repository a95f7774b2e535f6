package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

const (
	DeviceHeader   = "X-Device-ID"
	AdminPINHeader = "X-Admin-PIN"
)

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if device := c.GetHeader(DeviceHeader); device != "" {
			attrs = append(attrs, "device", device)
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Info("request", attrs...)
	}
}

// AdminAuth lets a request through only with the configured PIN.
func AdminAuth(pin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminPINHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(pin)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin pin"})
			return
		}
		c.Next()
	}
}

// Maintenance answers 503 while the store is in maintenance mode.
func Maintenance(settings *services.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if settings.Maintenance() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "store is under maintenance"})
			return
		}
		c.Next()
	}
}
