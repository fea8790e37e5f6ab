package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/domain/repositories"
	"partner-portal.backend/internal/infrastructure/provider"
	"partner-portal.backend/internal/metrics"
	"partner-portal.backend/pkg/logger"
)

// Dashboard redirect targets
const (
	RedirectStep1    = "/onboarding/step1"
	RedirectComplete = "/onboarding/complete"
)

// SellerReader reads a seller's state from the payout provider
type SellerReader interface {
	Configured() bool
	GetSeller(ctx context.Context, sellerID string) (*provider.Seller, error)
}

// StatusReconciler is the only writer of a registration's external status.
// The provisioner, the webhook receiver and status pulls all go through Record.
type StatusReconciler struct {
	regRepo        repositories.RegistrationRepository
	reader         SellerReader
	strictOrdering bool
	metrics        *metrics.Metrics
}

// NewStatusReconciler creates a new status reconciler. With strictOrdering set,
// writes carrying a change time older than the stored one are dropped.
func NewStatusReconciler(
	regRepo repositories.RegistrationRepository,
	reader SellerReader,
	strictOrdering bool,
	m *metrics.Metrics,
) *StatusReconciler {
	return &StatusReconciler{
		regRepo:        regRepo,
		reader:         reader,
		strictOrdering: strictOrdering,
		metrics:        m,
	}
}

// Record writes rawStatus to the registration and updates reg in place when the
// write lands. It reports whether the stored value changed.
func (r *StatusReconciler) Record(ctx context.Context, reg *entities.Registration, rawStatus string, source entities.StatusSource, changedAt null.Time) (bool, error) {
	raw := strings.TrimSpace(rawStatus)
	if raw == "" {
		return false, domainerrors.Validation("status is required")
	}
	status := entities.ParseExternalStatus(raw)

	if status == entities.ExternalStatusApproved && !reg.IsCompleted {
		r.metrics.IncrementStatusWrite(string(source), "refused")
		return false, fmt.Errorf("approved status for an incomplete registration: %w", domainerrors.ErrInvalidState)
	}

	if reg.ExternalStatus == status && reg.ExternalStatusRaw == raw && !newerThanStored(reg, changedAt) {
		r.metrics.IncrementStatusWrite(string(source), "unchanged")
		return false, nil
	}

	applied, err := r.regRepo.UpdateExternalStatus(ctx, entities.StatusWrite{
		RegistrationID: reg.ID,
		Status:         status,
		Raw:            raw,
		ChangedAt:      changedAt,
		RejectOlder:    r.strictOrdering,
	})
	if err != nil {
		r.metrics.IncrementStatusWrite(string(source), "error")
		return false, err
	}
	if !applied {
		r.metrics.IncrementStatusWrite(string(source), "stale")
		logger.Info(ctx, "Dropped out-of-order status write",
			zap.String("seller_id", reg.ExternalSellerID.String),
			zap.String("source", string(source)),
			zap.String("status", raw),
		)
		return false, nil
	}

	previous := reg.ExternalStatus
	changed := previous != status || reg.ExternalStatusRaw != raw
	reg.ExternalStatus = status
	reg.ExternalStatusRaw = raw
	if changedAt.Valid {
		reg.ExternalStatusAt = changedAt
	}

	if changed {
		r.metrics.IncrementStatusWrite(string(source), "changed")
		logger.Info(ctx, "Seller status changed",
			zap.String("seller_id", reg.ExternalSellerID.String),
			zap.String("source", string(source)),
			zap.String("from", string(previous)),
			zap.String("to", string(status)),
		)
	} else {
		r.metrics.IncrementStatusWrite(string(source), "unchanged")
	}
	return changed, nil
}

// ApplyWebhook applies a pushed status change to the registration owning sellerID
func (r *StatusReconciler) ApplyWebhook(ctx context.Context, sellerID, rawStatus string, changedAt null.Time) (*entities.Registration, error) {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return nil, domainerrors.Validation("sellerId is required")
	}
	if strings.TrimSpace(rawStatus) == "" {
		return nil, domainerrors.Validation("status is required")
	}

	reg, err := r.regRepo.GetByExternalSellerID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "Webhook for unknown seller", zap.String("seller_id", sellerID))
		}
		return nil, err
	}

	if _, err := r.Record(ctx, reg, rawStatus, entities.StatusSourceWebhook, changedAt); err != nil {
		return nil, err
	}
	return reg, nil
}

// Pull asks the provider for the partner's current status and persists it when
// it differs. Provider failures fall back to the stored value.
func (r *StatusReconciler) Pull(ctx context.Context, ownerID uuid.UUID) (*entities.StatusSnapshot, error) {
	reg, err := r.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.StatusSnapshot{ExternalStatus: entities.ExternalStatusNotSubmitted}, nil
		}
		return nil, err
	}
	return r.Refresh(ctx, reg), nil
}

// Refresh is Pull for an already loaded registration
func (r *StatusReconciler) Refresh(ctx context.Context, reg *entities.Registration) *entities.StatusSnapshot {
	snapshot, answered := r.refresh(ctx, reg)
	if answered {
		r.markChecked(ctx, reg)
	}
	return snapshot
}

// refresh reports whether the provider answered, whatever happened to the write
func (r *StatusReconciler) refresh(ctx context.Context, reg *entities.Registration) (*entities.StatusSnapshot, bool) {
	if !reg.ExternalSellerID.Valid || r.reader == nil || !r.reader.Configured() {
		return storedSnapshot(reg), false
	}

	seller, err := r.reader.GetSeller(ctx, reg.ExternalSellerID.String)
	if err != nil {
		logger.Warn(ctx, "Status pull failed, serving stored status",
			zap.String("seller_id", reg.ExternalSellerID.String),
			zap.Error(err),
		)
		return storedSnapshot(reg), false
	}

	snapshot := storedSnapshot(reg)
	snapshot.RawProviderFields = seller.Raw
	if strings.TrimSpace(seller.Status) == "" {
		return snapshot, true
	}

	if _, err := r.Record(ctx, reg, seller.Status, entities.StatusSourcePull, seller.StatusChangedAt); err != nil {
		logger.Warn(ctx, "Could not persist pulled status",
			zap.String("seller_id", reg.ExternalSellerID.String),
			zap.Error(err),
		)
		return snapshot, true
	}

	snapshot.ExternalStatus = reg.ExternalStatus
	snapshot.RawStatus = reg.ExternalStatusRaw
	snapshot.Refreshed = true
	return snapshot, true
}

func (r *StatusReconciler) markChecked(ctx context.Context, reg *entities.Registration) {
	now := time.Now().UTC()
	if err := r.regRepo.MarkStatusChecked(ctx, reg.ID, now); err != nil {
		logger.Warn(ctx, "Failed to record status check",
			zap.String("registration_id", reg.ID.String()),
			zap.Error(err),
		)
		return
	}
	reg.StatusCheckedAt = null.TimeFrom(now)
}

// newerThanStored reports whether changedAt would move the stored change time forward
func newerThanStored(reg *entities.Registration, changedAt null.Time) bool {
	if !changedAt.Valid {
		return false
	}
	return !reg.ExternalStatusAt.Valid || changedAt.Time.After(reg.ExternalStatusAt.Time)
}

// pendingStatuses are the states a completed registration can still move out of
var pendingStatuses = []entities.ExternalStatus{
	entities.ExternalStatusNotSubmitted,
	entities.ExternalStatusApprovalRequired,
	entities.ExternalStatusKYCRequired,
	entities.ExternalStatusPartiallyApproved,
	entities.ExternalStatusOther,
}

// RefreshStale pulls the status of up to limit submitted registrations still in
// a pending state and not checked for staleAfter, least recently checked first.
// Every attempt moves the row to the back of the queue, answered or not.
// It returns how many were refreshed.
func (r *StatusReconciler) RefreshStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	regs, err := r.regRepo.ListStale(ctx, pendingStatuses, time.Now().Add(-staleAfter), limit)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, reg := range regs {
		if ctx.Err() != nil {
			break
		}
		snapshot, _ := r.refresh(ctx, reg)
		r.markChecked(ctx, reg)
		if snapshot.Refreshed {
			refreshed++
		}
	}
	return refreshed, nil
}

// Stored returns the last persisted status without calling the provider
func (r *StatusReconciler) Stored(ctx context.Context, ownerID uuid.UUID) (*entities.StatusSnapshot, error) {
	reg, err := r.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return &entities.StatusSnapshot{ExternalStatus: entities.ExternalStatusNotSubmitted}, nil
		}
		return nil, err
	}
	return storedSnapshot(reg), nil
}

// Gate decides dashboard access for a partner, refreshing the status first when asked
func (r *StatusReconciler) Gate(ctx context.Context, ownerID uuid.UUID, refresh bool) (*entities.GateDecision, error) {
	reg, err := r.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if reg != nil && refresh && reg.IsCompleted {
		r.Refresh(ctx, reg)
	}

	decision := EvaluateGate(reg)
	r.metrics.IncrementGateDecision(string(decision.Action), string(decision.ExternalStatus))
	return &decision, nil
}

// EvaluateGate maps a registration onto a dashboard decision. A nil
// registration is treated as not started.
func EvaluateGate(reg *entities.Registration) entities.GateDecision {
	if reg == nil || !reg.IsCompleted {
		status := entities.ExternalStatusNotSubmitted
		if reg != nil && reg.ExternalStatus != "" {
			status = reg.ExternalStatus
		}
		return entities.GateDecision{
			Action:         entities.GateRedirect,
			RedirectTo:     RedirectStep1,
			ExternalStatus: status,
		}
	}

	switch reg.ExternalStatus {
	case entities.ExternalStatusApprovalRequired:
		return entities.GateDecision{
			Action:         entities.GateRedirect,
			RedirectTo:     RedirectComplete,
			ExternalStatus: reg.ExternalStatus,
		}
	case entities.ExternalStatusKYCRequired:
		return entities.GateDecision{
			Action:         entities.GateAllow,
			Banner:         entities.BannerKYC,
			ExternalStatus: reg.ExternalStatus,
		}
	case entities.ExternalStatusPartiallyApproved, entities.ExternalStatusApproved:
		return entities.GateDecision{
			Action:         entities.GateAllow,
			PayoutEnabled:  true,
			ExternalStatus: reg.ExternalStatus,
		}
	default:
		return entities.GateDecision{
			Action:            entities.GateAllow,
			Banner:            entities.BannerInfo,
			BannerDismissible: true,
			ExternalStatus:    reg.ExternalStatus,
		}
	}
}

func storedSnapshot(reg *entities.Registration) *entities.StatusSnapshot {
	status := reg.ExternalStatus
	if status == "" {
		status = entities.ExternalStatusNotSubmitted
	}
	return &entities.StatusSnapshot{
		ExternalStatus: status,
		RawStatus:      reg.ExternalStatusRaw,
	}
}
