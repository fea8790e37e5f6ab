package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"partner-portal.backend/internal/domain/entities"
	"partner-portal.backend/pkg/logger"
)

// GateDecisionKey is the context key for the dashboard gate decision
const GateDecisionKey = "gateDecision"

// DashboardGate decides whether a partner may use the dashboard
type DashboardGate interface {
	DashboardAccess(ctx context.Context, partnerID uuid.UUID) (*entities.GateDecision, error)
}

// RequireDashboardAccess lets only partners past the approval step through.
// Others get 403 with the page they should be sent to.
func RequireDashboardAccess(gate DashboardGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		partnerID, ok := GetPartnerID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		decision, err := gate.DashboardAccess(c.Request.Context(), partnerID)
		if err != nil {
			logger.Error(c.Request.Context(), "Dashboard gate failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":  "INTERNAL_ERROR",
				"error": "internal server error",
			})
			return
		}

		if decision.Action != entities.GateAllow {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":       "ONBOARDING_INCOMPLETE",
				"error":      "Onboarding is not complete",
				"redirectTo": decision.RedirectTo,
			})
			return
		}

		c.Set(GateDecisionKey, decision)
		c.Next()
	}
}

// GetGateDecision returns the decision stored by RequireDashboardAccess
func GetGateDecision(c *gin.Context) (*entities.GateDecision, bool) {
	v, exists := c.Get(GateDecisionKey)
	if !exists {
		return nil, false
	}
	d, ok := v.(*entities.GateDecision)
	return d, ok
}
