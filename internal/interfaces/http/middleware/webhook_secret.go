package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"partner-portal.backend/pkg/crypto"
	"partner-portal.backend/pkg/logger"
)

// WebhookSecretHeader carries the shared secret of the payout provider
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecretMiddleware checks the shared secret on provider webhooks.
// Without a configured secret, requests pass unless required is set, in which
// case every request is rejected.
func WebhookSecretMiddleware(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			if required {
				logger.Warn(c.Request.Context(), "Webhook rejected: secret required but not configured")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Webhook secret is not configured",
				})
				return
			}
			c.Next()
			return
		}

		if !crypto.SecureCompare(c.GetHeader(WebhookSecretHeader), secret) {
			logger.Warn(c.Request.Context(), "Webhook rejected: bad secret", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid webhook secret",
			})
			return
		}
		c.Next()
	}
}
