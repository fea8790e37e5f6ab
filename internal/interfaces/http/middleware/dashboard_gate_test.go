package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"partner-portal.backend/internal/domain/entities"
)

type gateStub struct {
	decision *entities.GateDecision
	err      error
}

func (s gateStub) DashboardAccess(context.Context, uuid.UUID) (*entities.GateDecision, error) {
	return s.decision, s.err
}

func gatedRouter(t *testing.T, gate DashboardGate, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set(PartnerIDKey, uuid.New())
			c.Next()
		})
	}
	r.Use(RequireDashboardAccess(gate))
	r.GET("/dashboard/summary", func(c *gin.Context) {
		d, ok := GetGateDecision(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"payoutEnabled": d.PayoutEnabled})
	})
	return r
}

func TestRequireDashboardAccess(t *testing.T) {
	get := func(r http.Handler) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil))
		return w
	}

	allowed := get(gatedRouter(t, gateStub{decision: &entities.GateDecision{Action: entities.GateAllow, PayoutEnabled: true}}, true))
	require.Equal(t, http.StatusOK, allowed.Code)
	require.Contains(t, allowed.Body.String(), `"payoutEnabled":true`)

	redirected := get(gatedRouter(t, gateStub{decision: &entities.GateDecision{Action: entities.GateRedirect, RedirectTo: "/onboarding/complete"}}, true))
	require.Equal(t, http.StatusForbidden, redirected.Code)
	require.Contains(t, redirected.Body.String(), "/onboarding/complete")

	failed := get(gatedRouter(t, gateStub{err: errors.New("db down")}, true))
	require.Equal(t, http.StatusInternalServerError, failed.Code)

	anonymous := get(gatedRouter(t, gateStub{}, false))
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)
}
