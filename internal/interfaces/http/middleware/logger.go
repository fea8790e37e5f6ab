package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"partner-portal.backend/pkg/logger"
)

// health and metrics routes are polled constantly and would drown the request log
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// LoggerMiddleware logs one line per finished request
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, quiet := quietPaths[c.Request.URL.Path]; quiet {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		logger.LogRequest(c.Request.Context(), logger.RequestEntry{
			Method:   c.Request.Method,
			Route:    route,
			Path:     path,
			Status:   c.Writer.Status(),
			Latency:  time.Since(start),
			ClientIP: c.ClientIP(),
			Errors:   c.Errors.ByType(gin.ErrorTypePrivate).String(),
		})
	}
}
