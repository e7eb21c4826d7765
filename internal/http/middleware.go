package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDKey = "request_id"

// RequestID returns the id assigned to this request by requestLogger.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// requestLogger tags every request with an id and logs method, path, status
// and duration once the handler chain finishes. An inbound X-Request-ID is
// honored so callers can correlate.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)

		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		}).Info("request")
	}
}
