package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/domain/repositories"
	"partner-portal.backend/internal/metrics"
	"partner-portal.backend/pkg/logger"
	"partner-portal.backend/pkg/utils"
)

const registrationStore = "registration_store"

// IdentityGuard refuses a second registration for an identity that already
// belongs to another partner
type IdentityGuard struct {
	regRepo  repositories.RegistrationRepository
	userRepo repositories.UserRepository
	metrics  *metrics.Metrics
}

// NewIdentityGuard creates a new identity guard
func NewIdentityGuard(
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	m *metrics.Metrics,
) *IdentityGuard {
	return &IdentityGuard{
		regRepo:  regRepo,
		userRepo: userRepo,
		metrics:  m,
	}
}

// CheckIdentity looks the identity up by registration number when one is given,
// otherwise by representative name and phone. The caller's own registration
// never conflicts with itself.
func (g *IdentityGuard) CheckIdentity(ctx context.Context, ownerID uuid.UUID, input *entities.DuplicateCheckInput) (*entities.DuplicateCheckResult, error) {
	if input == nil {
		return nil, domainerrors.Validation("duplicate check input is required")
	}

	var (
		key      string
		existing *entities.Registration
		err      error
	)
	switch {
	case strings.TrimSpace(input.RegistrationNumber) != "":
		key = "registration_number"
		number, nerr := utils.NormalizeRegistrationNumber(input.RegistrationNumber)
		if nerr != nil {
			return nil, domainerrors.Validation(nerr.Error())
		}
		existing, err = g.regRepo.FindByRegistrationNumber(ctx, number)
	case strings.TrimSpace(input.RepresentativeName) != "" && strings.TrimSpace(input.ContactPhone) != "":
		key = "representative"
		phones, perr := utils.PhoneLookupForms(input.ContactPhone)
		if perr != nil {
			return nil, domainerrors.Validation(perr.Error())
		}
		existing, err = g.regRepo.FindCompletedByRepresentative(ctx, strings.TrimSpace(input.RepresentativeName), phones, ownerID)
	default:
		return nil, domainerrors.Validation("registrationNumber or representativeName and contactPhone are required")
	}

	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			g.metrics.IncrementDuplicateCheck(key, "available")
			return &entities.DuplicateCheckResult{Available: true}, nil
		}
		g.metrics.IncrementDuplicateCheck(key, "error")
		return nil, storeUnavailable(err)
	}

	if existing.OwnerID == ownerID {
		g.metrics.IncrementDuplicateCheck(key, "available")
		return &entities.DuplicateCheckResult{Available: true}, nil
	}

	result, err := g.conflictHint(ctx, existing)
	if err != nil {
		g.metrics.IncrementDuplicateCheck(key, "error")
		return nil, err
	}
	g.metrics.IncrementDuplicateCheck(key, "conflict")
	logger.Info(ctx, "Duplicate identity detected",
		zap.String("key", key),
		zap.String("existing_registration_id", existing.ID.String()),
	)
	return result, nil
}

func (g *IdentityGuard) conflictHint(ctx context.Context, existing *entities.Registration) (*entities.DuplicateCheckResult, error) {
	owner, err := g.userRepo.GetByID(ctx, existing.OwnerID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, storeUnavailable(err)
		}
		return &entities.DuplicateCheckResult{
			Available:   false,
			MaskedEmail: utils.MaskEmail(existing.ContactEmail),
			Origin:      entities.AuthProvider("").Label(),
		}, nil
	}

	email := owner.Email
	if email == "" {
		email = existing.ContactEmail
	}
	return &entities.DuplicateCheckResult{
		Available:   false,
		MaskedEmail: utils.MaskEmail(email),
		Origin:      owner.AuthProvider.Label(),
	}, nil
}

// ConflictError turns a negative guard answer into the API error
func ConflictError(result *entities.DuplicateCheckResult) *domainerrors.AppError {
	appErr := domainerrors.Conflict("this identity is already registered with another account")
	if result.MaskedEmail != "" {
		appErr.WithDetail("maskedEmail", result.MaskedEmail)
	}
	if result.Origin != "" {
		appErr.WithDetail("origin", result.Origin)
	}
	return appErr
}

func storeUnavailable(err error) error {
	return &domainerrors.ExternalError{
		Service: registrationStore,
		Kind:    domainerrors.ErrExternalUnavailable,
		Err:     fmt.Errorf("duplicate lookup: %w", err),
	}
}
