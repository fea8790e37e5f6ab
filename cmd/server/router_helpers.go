package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	serviceName    = "partner-portal-backend"
	serviceVersion = "0.1.0"
)

type pingFunc func(ctx context.Context) error

func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

// registerHealthRoute reports liveness plus the state of each dependency.
// A failing dependency degrades the answer but never turns it into a 5xx.
func registerHealthRoute(r *gin.Engine, dbPing, redisPing pingFunc) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		checks := gin.H{}
		for name, ping := range map[string]pingFunc{"database": dbPing, "redis": redisPing} {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				status = "degraded"
				continue
			}
			checks[name] = "up"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"service": serviceName,
			"version": serviceVersion,
			"checks":  checks,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
