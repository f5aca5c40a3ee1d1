package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	logEntryKey     = "log_entry"
)

// requestID tags each request with an id, reusing the caller's if present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(base *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := base.WithField(requestIDKey, c.GetString(requestIDKey))
		c.Set(logEntryKey, log)

		c.Next()

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("request handled")
	}
}

// entry returns the request-scoped logger, falling back to base.
func entry(c *gin.Context, base *logrus.Entry) *logrus.Entry {
	if v, ok := c.Get(logEntryKey); ok {
		if log, ok := v.(*logrus.Entry); ok {
			return log
		}
	}
	return base
}
