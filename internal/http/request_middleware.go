package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linkcapture/console/internal/http/api/admin/handlers"
	"github.com/linkcapture/console/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

// RequestIDMiddleware assigns a request ID, reusing a sane inbound one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Set(handlers.ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestLoggerMiddleware logs each request and counts it by status code.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(status)).Inc()

		fields := log.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if requestID, ok := c.Get(handlers.ContextRequestID); ok {
			fields["request_id"] = requestID
		}
		entry := log.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Debug("request completed")
		}
	}
}
