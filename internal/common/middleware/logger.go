package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"nfticket-backend/internal/common/logger"
)

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	HTTPRequest(method, route string, code int, took time.Duration)
}

// Logger logs every request and, when rec is non-nil, records it by route.
func Logger(rec RequestRecorder) gin.HandlerFunc {
	log := logger.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		if rec != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			rec.HTTPRequest(c.Request.Method, route, c.Writer.Status(), latency)
		}

		log.Info().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("Request processed")
	}
}
