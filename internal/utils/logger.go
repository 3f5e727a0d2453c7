package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loggerKey = "logger"

// ContextLogger stores a request scoped logger carrying the request id.
func ContextLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger
		if requestID, ok := c.Get("request_id"); ok {
			l = logger.With("request_id", requestID)
		}
		c.Set(loggerKey, l)
		c.Next()
	}
}

// LoggerFromContext returns the request logger, or fallback when none was stored.
func LoggerFromContext(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.SugaredLogger); ok {
			return l
		}
	}
	return fallback
}

// LoggerMiddleware writes one line per request.
func LoggerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		l := LoggerFromContext(c, logger)
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			fields = append(fields, "query", query)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Errorw("HTTP request", fields...)
		case status >= 400:
			l.Warnw("HTTP request", fields...)
		default:
			l.Infow("HTTP request", fields...)
		}
	}
}
