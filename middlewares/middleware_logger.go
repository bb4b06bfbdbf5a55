package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// LoggerMiddleware logs every request and records it in the HTTP metrics.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// route template keeps the label set bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := []string{c.Request.Method, route, strconv.Itoa(status)}
		metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(latency.Seconds())

		if raw != "" {
			path = path + "?" + raw
		}
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
			"path":    path,
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
