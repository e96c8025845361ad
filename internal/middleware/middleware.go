package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
)

type contextKey string

// RequestIDKey is the context key under which the request id is stored.
const RequestIDKey contextKey = "request_id"

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAPIKey    = "X-API-Key"
)

// RequestID reuses an incoming X-Request-ID or generates a new one, echoes it
// back and stores it on the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(string(RequestIDKey), requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), RequestIDKey, requestID))
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// GetRequestID returns the request id stored on ctx, or "".
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// RequestLogger writes one access log line per request.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": GetRequestID(c.Request.Context()),
			"client_ip":  c.ClientIP(),
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields)
		default:
			logger.Info("request", fields)
		}
	}
}

// APIKeyAuth rejects requests whose X-API-Key header does not match apiKey.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(HeaderAPIKey))
		if len(provided) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "Could not validate credentials",
			})
			return
		}
		c.Next()
	}
}
