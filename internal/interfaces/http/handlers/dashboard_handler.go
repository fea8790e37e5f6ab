package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"partner-portal.backend/internal/domain/entities"
	"partner-portal.backend/internal/interfaces/http/middleware"
	"partner-portal.backend/internal/interfaces/http/response"
)

// DashboardService answers dashboard entry questions
type DashboardService interface {
	DashboardAccess(ctx context.Context, ownerID uuid.UUID) (*entities.GateDecision, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (*entities.DashboardSummary, error)
}

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboard DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetAccess returns the gate decision, pulling the provider status first
// GET /api/v1/dashboard/access
func (h *DashboardHandler) GetAccess(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	decision, err := h.dashboard.DashboardAccess(c.Request.Context(), partnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, decision)
}

// GetSummary returns the registration overview. Mounted behind RequireDashboardAccess.
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	summary, err := h.dashboard.Summary(c.Request.Context(), partnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{"summary": summary}
	if decision, ok := middleware.GetGateDecision(c); ok {
		body["banner"] = decision.Banner
		body["bannerDismissible"] = decision.BannerDismissible
	}
	response.Success(c, http.StatusOK, body)
}
