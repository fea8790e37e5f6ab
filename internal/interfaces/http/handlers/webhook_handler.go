package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/interfaces/http/response"
	"partner-portal.backend/internal/metrics"
	"partner-portal.backend/pkg/logger"
)

// Seller events that carry a status change. Everything else is acknowledged and ignored.
const (
	EventSellerStatusChanged = "SELLER_STATUS_CHANGED"
	EventSellerUpdated       = "SELLER_UPDATED"
)

// WebhookService applies provider-pushed seller statuses
type WebhookService interface {
	ApplyWebhook(ctx context.Context, sellerID, rawStatus string, changedAt null.Time) (*entities.Registration, error)
}

// WebhookHandler handles webhook endpoints
type WebhookHandler struct {
	webhooks WebhookService
	metrics  *metrics.Metrics
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks WebhookService, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, metrics: m}
}

type sellerWebhook struct {
	EventType string `json:"eventType" binding:"required"`
	CreatedAt string `json:"createdAt"`
	Data      struct {
		SellerID  string `json:"sellerId"`
		Status    string `json:"status"`
		ChangedAt string `json:"changedAt"`
	} `json:"data"`
}

// HandlePayoutProviderWebhook applies seller status events from the payout provider
// POST /api/v1/webhooks/payout-provider
func (h *WebhookHandler) HandlePayoutProviderWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var input sellerWebhook
	if err := c.ShouldBindJSON(&input); err != nil {
		h.metrics.IncrementWebhookEvent("unknown", "malformed")
		response.Error(c, domainerrors.Validation("malformed webhook payload"))
		return
	}

	event := strings.ToUpper(strings.TrimSpace(input.EventType))
	if event != EventSellerStatusChanged && event != EventSellerUpdated {
		h.metrics.IncrementWebhookEvent(event, "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
		return
	}

	sellerID := strings.TrimSpace(input.Data.SellerID)
	if sellerID == "" || strings.TrimSpace(input.Data.Status) == "" {
		h.metrics.IncrementWebhookEvent(event, "malformed")
		response.Error(c, domainerrors.Validation("data.sellerId and data.status are required"))
		return
	}

	changedAt, err := parseEventTime(input.Data.ChangedAt, input.CreatedAt)
	if err != nil {
		h.metrics.IncrementWebhookEvent(event, "malformed")
		response.Error(c, domainerrors.Validation("changedAt must be an RFC 3339 timestamp"))
		return
	}

	if _, err := h.webhooks.ApplyWebhook(ctx, sellerID, input.Data.Status, changedAt); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			h.metrics.IncrementWebhookEvent(event, "unknown_seller")
			response.Error(c, domainerrors.NotFound("seller not found"))
			return
		}
		h.metrics.IncrementWebhookEvent(event, "error")
		logger.Error(ctx, "Webhook application failed", zap.String("seller_id", sellerID), zap.Error(err))
		response.Error(c, err)
		return
	}

	h.metrics.IncrementWebhookEvent(event, "applied")
	c.JSON(http.StatusOK, gin.H{"received": true, "applied": true})
}

// parseEventTime prefers the status change time and falls back to the delivery time.
func parseEventTime(values ...string) (null.Time, error) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return null.Time{}, err
		}
		return null.TimeFrom(t.UTC()), nil
	}
	return null.Time{}, nil
}
