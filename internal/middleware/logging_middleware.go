package middleware

import (
	"net/http"
	"time"

	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware writes one access log line per request. Routes are logged
// by their pattern; the poll id goes in its own field.
func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("poll_id", id))
		}

		if status >= http.StatusInternalServerError {
			log.Warn(c.Request.Context(), "http_request", fields...)
			return
		}
		log.Info(c.Request.Context(), "http_request", fields...)
	}
}
