package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/businessregistry"
	"partner-portal.backend/pkg/utils"
)

const defaultBusinessVerifyTimeout = 8 * time.Second

// BusinessRegistry validates a business identity against the national registry
type BusinessRegistry interface {
	Validate(ctx context.Context, q businessregistry.Query) (*businessregistry.Result, error)
}

// BusinessVerifier checks a business against the registry and the identity
// guard at the same time
type BusinessVerifier struct {
	registry BusinessRegistry
	guard    *IdentityGuard
	timeout  time.Duration
}

// NewBusinessVerifier creates a new business verifier
func NewBusinessVerifier(registry BusinessRegistry, guard *IdentityGuard, timeout time.Duration) *BusinessVerifier {
	if timeout <= 0 {
		timeout = defaultBusinessVerifyTimeout
	}
	return &BusinessVerifier{
		registry: registry,
		guard:    guard,
		timeout:  timeout,
	}
}

// VerifyBusiness returns the registry's canonical fields for a matching
// business. A number already claimed by another partner is a conflict.
func (v *BusinessVerifier) VerifyBusiness(ctx context.Context, ownerID uuid.UUID, input *entities.BusinessVerifyInput) (*entities.BusinessVerifyResult, error) {
	number, err := utils.NormalizeRegistrationNumber(input.RegistrationNumber)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	openDate, err := NormalizeOpenDate(input.OpenDate)
	if err != nil {
		return nil, err
	}
	representative := strings.TrimSpace(input.RepresentativeName)
	if representative == "" {
		return nil, domainerrors.Validation("representativeName is required")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var (
		result *businessregistry.Result
		dup    *entities.DuplicateCheckResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := v.registry.Validate(gctx, businessregistry.Query{
			RegistrationNumber: number,
			OpenDate:           openDate,
			RepresentativeName: representative,
			LegalName:          strings.TrimSpace(input.LegalName),
		})
		result = res
		return err
	})
	g.Go(func() error {
		res, err := v.guard.CheckIdentity(gctx, ownerID, &entities.DuplicateCheckInput{RegistrationNumber: number})
		dup = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !dup.Available {
		return nil, ConflictError(dup)
	}
	if !result.Matched {
		return &entities.BusinessVerifyResult{Verified: false, Reason: result.Reason}, nil
	}

	return &entities.BusinessVerifyResult{
		Verified: true,
		CanonicalFields: &entities.BusinessCanonicalFields{
			RegistrationNumber: number,
			LegalName:          firstNonEmpty(result.LegalName, strings.TrimSpace(input.LegalName)),
			RepresentativeName: firstNonEmpty(result.RepresentativeName, representative),
			OpenDate:           openDate,
			BusinessStatus:     result.BusinessStatus,
			TaxType:            result.TaxType,
		},
	}, nil
}

// NormalizeOpenDate accepts YYYYMMDD with optional separators and returns YYYYMMDD
func NormalizeOpenDate(raw string) (string, error) {
	d := utils.DigitsOnly(raw)
	if len(d) != 8 {
		return "", domainerrors.Validation("openDate must be YYYYMMDD")
	}
	if _, err := time.Parse("20060102", d); err != nil {
		return "", domainerrors.Validation("openDate is not a valid date")
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
