package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// AdminHeader carries the shared admin password on privileged requests.
const AdminHeader = "X-Admin-Password"

// RequireAdmin rejects requests whose admin password header does not
// match the configured shared secret.
func RequireAdmin(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(AdminHeader) != password {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid admin password",
			})
			return
		}
		c.Next()
	}
}

// RequestLog tags every request with an id and logs method, path,
// status and duration once the handler chain finishes.
func RequestLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}

// BodyLimit caps the request body. Data-URL images make auction item
// payloads big but not unbounded.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
