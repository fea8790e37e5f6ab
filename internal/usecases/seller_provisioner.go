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
	"partner-portal.backend/pkg/logger"
	"partner-portal.backend/pkg/utils"
)

// SellerAPI is the seller surface of the payout provider
type SellerAPI interface {
	SellerReader
	CreateSeller(ctx context.Context, payload *provider.SellerPayload) (*provider.Seller, error)
	UpdateSeller(ctx context.Context, sellerID string, payload *provider.SellerPayload) (*provider.Seller, error)
	FindSellerByRef(ctx context.Context, refSellerID string) (*provider.Seller, error)
}

// provisionClaimLease bounds how long a crashed request can keep others from provisioning
var provisionClaimLease = 2 * time.Minute

// SellerProvisioner registers partners as sellers with the payout provider
type SellerProvisioner struct {
	api        SellerAPI
	regRepo    repositories.RegistrationRepository
	uow        repositories.UnitOfWork
	reconciler *StatusReconciler
	guard      *IdentityGuard
}

// NewSellerProvisioner creates a new seller provisioner
func NewSellerProvisioner(
	api SellerAPI,
	regRepo repositories.RegistrationRepository,
	uow repositories.UnitOfWork,
	reconciler *StatusReconciler,
	guard *IdentityGuard,
) *SellerProvisioner {
	return &SellerProvisioner{
		api:        api,
		regRepo:    regRepo,
		uow:        uow,
		reconciler: reconciler,
		guard:      guard,
	}
}

// BuildSellerPayload shapes a registration into the provider's seller body
func BuildSellerPayload(reg *entities.Registration) (*provider.SellerPayload, error) {
	account := provider.AccountInfo{
		BankCode:      reg.BankCode,
		AccountNumber: reg.AccountNumber,
		HolderName:    reg.AccountHolder,
	}
	ref := reg.ID.String()

	var businessType provider.BusinessType
	switch reg.BusinessKind {
	case entities.BusinessKindIndividual:
		return provider.NewIndividualSeller(ref, provider.IndividualInfo{
			Name:  reg.RepresentativeName,
			Email: reg.ContactEmail,
			Phone: reg.ContactPhone,
		}, account), nil
	case entities.BusinessKindCorporate:
		businessType = provider.BusinessTypeCorporate
	case entities.BusinessKindSoleProprietor:
		businessType = provider.BusinessTypeIndividualBusiness
	default:
		return nil, domainerrors.Validation(fmt.Sprintf("unsupported business kind %q", reg.BusinessKind))
	}

	if !reg.RegistrationNumber.Valid || reg.RegistrationNumber.String == "" {
		return nil, domainerrors.Validation("registration number is required for a business seller")
	}
	return provider.NewBusinessSeller(ref, businessType, provider.CompanyInfo{
		Name:                       reg.LegalName,
		RepresentativeName:         reg.RepresentativeName,
		BusinessRegistrationNumber: reg.RegistrationNumber.String,
		Email:                      reg.ContactEmail,
		Phone:                      reg.ContactPhone,
	}, account), nil
}

// Provision creates the seller and completes the registration. Only the request
// holding the provisioning claim calls the provider. A create that timed out or
// that the provider reports as a duplicate reference is resolved by looking the
// seller up by reference, never by submitting again.
func (p *SellerProvisioner) Provision(ctx context.Context, reg *entities.Registration) (*entities.Registration, error) {
	if reg.ExternalSellerID.Valid {
		return reg, nil
	}
	if reg.Step < 2 || reg.BankCode == "" || reg.AccountNumber == "" {
		return nil, domainerrors.InvalidState("business and bank account steps must be completed first")
	}

	payload, err := BuildSellerPayload(reg)
	if err != nil {
		return nil, err
	}
	if !p.api.Configured() {
		return nil, notConfigured()
	}
	if err := p.checkRepresentative(ctx, reg, reg.ContactPhone); err != nil {
		return nil, err
	}

	claimed, err := p.regRepo.ClaimProvisioning(ctx, reg.ID, time.Now().Add(-provisionClaimLease))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return p.afterLostClaim(ctx, reg)
	}

	seller, err := p.createSeller(ctx, payload)
	if err != nil {
		p.releaseClaim(ctx, reg.ID)
		logger.Error(ctx, "Seller creation failed",
			zap.String("registration_id", reg.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	done, err := p.complete(ctx, reg, seller)
	if err != nil {
		p.releaseClaim(ctx, reg.ID)
		logger.Error(ctx, "Seller created but registration not updated",
			zap.String("seller_id", seller.ID),
			zap.String("registration_id", reg.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Info(ctx, "Seller provisioned",
		zap.String("seller_id", seller.ID),
		zap.String("registration_id", reg.ID.String()),
		zap.String("status", seller.Status),
	)
	return done, nil
}

func (p *SellerProvisioner) createSeller(ctx context.Context, payload *provider.SellerPayload) (*provider.Seller, error) {
	seller, err := p.api.CreateSeller(ctx, payload)
	if err == nil {
		return seller, nil
	}

	duplicateRef := provider.IsDuplicateRef(err)
	if !duplicateRef && !errors.Is(err, domainerrors.ErrTimeout) {
		return nil, err
	}

	existing, lookupErr := p.api.FindSellerByRef(ctx, payload.RefSellerID)
	if lookupErr != nil {
		logger.Warn(ctx, "Seller lookup by reference failed",
			zap.String("ref_seller_id", payload.RefSellerID),
			zap.Bool("duplicate_ref", duplicateRef),
			zap.Error(lookupErr),
		)
		if duplicateRef {
			return nil, lookupErr
		}
		return nil, err
	}

	logger.Info(ctx, "Recovered seller from an earlier create",
		zap.String("seller_id", existing.ID),
		zap.String("ref_seller_id", payload.RefSellerID),
	)
	return existing, nil
}

// complete binds the seller and records its first status in one transaction
func (p *SellerProvisioner) complete(ctx context.Context, reg *entities.Registration, seller *provider.Seller) (*entities.Registration, error) {
	done := *reg
	err := p.uow.Do(ctx, func(txCtx context.Context) error {
		if err := p.regRepo.MarkProvisioned(txCtx, reg.ID, seller.ID); err != nil {
			return err
		}
		done.ExternalSellerID = null.StringFrom(seller.ID)
		done.Step = 3
		done.IsCompleted = true
		done.ProvisionClaimedAt = null.Time{}

		if strings.TrimSpace(seller.Status) == "" {
			return nil
		}
		_, err := p.reconciler.Record(txCtx, &done, seller.Status, entities.StatusSourceProvision, seller.StatusChangedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &done, nil
}

// afterLostClaim answers a request that found another one provisioning: the
// finished registration when the winner already committed, otherwise a retryable conflict
func (p *SellerProvisioner) afterLostClaim(ctx context.Context, reg *entities.Registration) (*entities.Registration, error) {
	current, err := p.regRepo.GetByOwnerID(ctx, reg.OwnerID)
	if err != nil {
		return nil, err
	}
	if current.ExternalSellerID.Valid {
		return current, nil
	}
	logger.Info(ctx, "Provisioning already in progress", zap.String("registration_id", reg.ID.String()))
	return nil, domainerrors.InProgress("seller registration is already in progress, please try again shortly")
}

func (p *SellerProvisioner) releaseClaim(ctx context.Context, id uuid.UUID) {
	if err := p.regRepo.ReleaseProvisioning(context.WithoutCancel(ctx), id); err != nil {
		logger.Warn(ctx, "Failed to release provisioning claim",
			zap.String("registration_id", id.String()),
			zap.Error(err),
		)
	}
}

// checkRepresentative keeps an individual's (name, phone) pair unique among
// completed registrations
func (p *SellerProvisioner) checkRepresentative(ctx context.Context, reg *entities.Registration, phone string) error {
	if reg.BusinessKind != entities.BusinessKindIndividual {
		return nil
	}
	dup, err := p.guard.CheckIdentity(ctx, reg.OwnerID, &entities.DuplicateCheckInput{
		RepresentativeName: reg.RepresentativeName,
		ContactPhone:       phone,
	})
	if err != nil {
		return err
	}
	if !dup.Available {
		return ConflictError(dup)
	}
	return nil
}

// UpdateContact sends corrected contact details for an existing seller.
// Sending the same details twice yields the same result.
func (p *SellerProvisioner) UpdateContact(ctx context.Context, reg *entities.Registration, phone, email string) (*entities.Registration, error) {
	if !reg.ExternalSellerID.Valid {
		return nil, domainerrors.InvalidState("registration has not been submitted to the provider")
	}

	canonical, err := utils.CanonicalPhone(phone)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = reg.ContactEmail
	}

	updated := *reg
	updated.ContactPhone = canonical
	updated.ContactEmail = email

	payload, err := BuildSellerPayload(&updated)
	if err != nil {
		return nil, err
	}
	if !p.api.Configured() {
		return nil, notConfigured()
	}
	if err := p.checkRepresentative(ctx, reg, canonical); err != nil {
		return nil, err
	}

	sellerID := reg.ExternalSellerID.String
	seller, err := p.api.UpdateSeller(ctx, sellerID, payload)
	if err != nil {
		logger.Error(ctx, "Seller update failed", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, err
	}

	err = p.uow.Do(ctx, func(txCtx context.Context) error {
		if err := p.regRepo.UpdateContact(txCtx, reg.ID, canonical, email); err != nil {
			return err
		}
		if strings.TrimSpace(seller.Status) == "" {
			return nil
		}
		_, err := p.reconciler.Record(txCtx, &updated, seller.Status, entities.StatusSourceProvision, seller.StatusChangedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Seller contact updated", zap.String("seller_id", sellerID))
	return &updated, nil
}

func notConfigured() error {
	return &domainerrors.ExternalError{
		Service: "provider",
		Kind:    domainerrors.ErrExternalUnavailable,
		Err:     provider.ErrNotConfigured,
	}
}
