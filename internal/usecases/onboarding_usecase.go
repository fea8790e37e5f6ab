package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/domain/repositories"
	"partner-portal.backend/pkg/logger"
	"partner-portal.backend/pkg/utils"
)

// OnboardingUsecase drives the three-step partner registration wizard
type OnboardingUsecase struct {
	regRepo     repositories.RegistrationRepository
	drafts      repositories.DraftRepository
	guard       *IdentityGuard
	bank        *BankVerifier
	business    *BusinessVerifier
	provisioner *SellerProvisioner
	reconciler  *StatusReconciler
}

// NewOnboardingUsecase creates a new onboarding usecase
func NewOnboardingUsecase(
	regRepo repositories.RegistrationRepository,
	drafts repositories.DraftRepository,
	guard *IdentityGuard,
	bank *BankVerifier,
	business *BusinessVerifier,
	provisioner *SellerProvisioner,
	reconciler *StatusReconciler,
) *OnboardingUsecase {
	return &OnboardingUsecase{
		regRepo:     regRepo,
		drafts:      drafts,
		guard:       guard,
		bank:        bank,
		business:    business,
		provisioner: provisioner,
		reconciler:  reconciler,
	}
}

// CheckDuplicate answers whether an identity is still free
func (u *OnboardingUsecase) CheckDuplicate(ctx context.Context, ownerID uuid.UUID, input *entities.DuplicateCheckInput) (*entities.DuplicateCheckResult, error) {
	return u.guard.CheckIdentity(ctx, ownerID, input)
}

// VerifyBusiness verifies a business and keeps the canonical fields in the draft
func (u *OnboardingUsecase) VerifyBusiness(ctx context.Context, ownerID uuid.UUID, input *entities.BusinessVerifyInput) (*entities.BusinessVerifyResult, error) {
	result, err := u.business.VerifyBusiness(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		return result, nil
	}

	err = u.updateDraft(ctx, ownerID, func(d *entities.OnboardingDraft) {
		d.VerifiedBusiness = result.CanonicalFields
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyBank looks up the holder of an account and keeps the evidence in the draft
func (u *OnboardingUsecase) VerifyBank(ctx context.Context, ownerID uuid.UUID, input *entities.BankVerifyInput) (*entities.BankAccountHolder, error) {
	holder, err := u.bank.VerifyAccount(ctx, input.BankName, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	err = u.updateDraft(ctx, ownerID, func(d *entities.OnboardingDraft) {
		d.VerifiedAccount = &entities.VerifiedAccount{
			BankName:      holder.BankName,
			BankCode:      holder.BankCode,
			AccountNumber: holder.AccountNumber,
			HolderName:    holder.HolderName,
			VerifiedAt:    time.Now().UTC(),
		}
	})
	if err != nil {
		return nil, err
	}
	return holder, nil
}

// GetOnboarding returns the registration, the draft and the next step to show
func (u *OnboardingUsecase) GetOnboarding(ctx context.Context, ownerID uuid.UUID) (*entities.OnboardingView, error) {
	reg, err := u.findRegistration(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	draft, err := u.drafts.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	view := &entities.OnboardingView{Registration: reg, NextStep: nextStep(reg)}
	if reg != nil {
		view.Status = storedSnapshot(reg)
	}
	if draft != nil {
		dv := &entities.DraftView{
			VerifiedBusiness: draft.VerifiedBusiness,
			UpdatedAt:        draft.UpdatedAt,
		}
		if draft.VerifiedAccount != nil {
			dv.VerifiedBankName = draft.VerifiedAccount.BankName
			dv.VerifiedHolder = draft.VerifiedAccount.HolderName
		}
		view.Draft = dv
	}
	return view, nil
}

// SubmitStep1 stores the business information and creates the registration row
func (u *OnboardingUsecase) SubmitStep1(ctx context.Context, ownerID uuid.UUID, input *entities.Step1Input) (*entities.Registration, error) {
	if !input.BusinessKind.Valid() {
		return nil, domainerrors.Validation("businessKind must be individual, corporate or sole_proprietor")
	}
	representative := strings.TrimSpace(input.RepresentativeName)
	if representative == "" {
		return nil, domainerrors.Validation("representativeName is required")
	}
	phone, err := utils.CanonicalPhone(input.ContactPhone)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	email := strings.TrimSpace(input.ContactEmail)
	if email == "" {
		return nil, domainerrors.Validation("contactEmail is required")
	}

	existing, err := u.findRegistration(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsCompleted {
		return nil, domainerrors.InvalidState("registration has already been submitted")
	}

	reg := existing
	if reg == nil {
		reg = &entities.Registration{OwnerID: ownerID}
	}
	reg.BusinessKind = input.BusinessKind
	reg.RepresentativeName = representative
	reg.ContactPhone = phone
	reg.ContactEmail = email

	var check entities.DuplicateCheckInput
	if input.BusinessKind.RequiresRegistrationNumber() {
		number, err := utils.NormalizeRegistrationNumber(input.RegistrationNumber)
		if err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
		draft, err := u.drafts.Get(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if draft == nil || draft.VerifiedBusiness == nil || draft.VerifiedBusiness.RegistrationNumber != number {
			return nil, domainerrors.InvalidState("business must be verified before it can be submitted")
		}
		verified := draft.VerifiedBusiness
		reg.LegalName = firstNonEmpty(verified.LegalName, strings.TrimSpace(input.LegalName))
		reg.RegistrationNumber = null.StringFrom(number)
		reg.OpenDate = null.StringFrom(verified.OpenDate)
		check.RegistrationNumber = number
	} else {
		reg.LegalName = representative
		reg.RegistrationNumber = null.String{}
		reg.OpenDate = null.String{}
		check.RepresentativeName = representative
		check.ContactPhone = phone
	}

	dup, err := u.guard.CheckIdentity(ctx, ownerID, &check)
	if err != nil {
		return nil, err
	}
	if !dup.Available {
		return nil, ConflictError(dup)
	}

	if reg.Step < 1 {
		reg.Step = 1
	}
	if existing == nil {
		err = u.regRepo.Create(ctx, reg)
	} else {
		err = u.regRepo.UpdateDetails(ctx, reg)
	}
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Onboarding step 1 saved",
		zap.String("registration_id", reg.ID.String()),
		zap.String("business_kind", string(reg.BusinessKind)),
	)
	return reg, nil
}

// SubmitStep2 stores the payout account. The account must have been verified
// and the claimed holder must match the bank's records.
func (u *OnboardingUsecase) SubmitStep2(ctx context.Context, ownerID uuid.UUID, input *entities.Step2Input) (*entities.Registration, error) {
	reg, err := u.openRegistration(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	code, display, ok := ResolveBank(input.BankName)
	if !ok {
		return nil, domainerrors.Validation("unsupported bank")
	}
	number, err := utils.NormalizeAccountNumber(input.AccountNumber)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	draft, err := u.drafts.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.VerifiedAccount == nil ||
		draft.VerifiedAccount.BankCode != code || draft.VerifiedAccount.AccountNumber != number {
		return nil, domainerrors.InvalidState("bank account must be verified before it can be submitted")
	}
	if !HolderMatches(input.AccountHolder, draft.VerifiedAccount.HolderName) {
		return nil, domainerrors.Validation("account holder does not match the bank's records").
			WithDetail("fields", []string{"accountHolder"})
	}

	reg.BankName = display
	reg.BankCode = code
	reg.AccountNumber = number
	reg.AccountHolder = draft.VerifiedAccount.HolderName
	if reg.Step < 2 {
		reg.Step = 2
	}
	if err := u.regRepo.UpdateDetails(ctx, reg); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Onboarding step 2 saved", zap.String("registration_id", reg.ID.String()))
	return reg, nil
}

// SubmitStep3 provisions the seller and clears the draft
func (u *OnboardingUsecase) SubmitStep3(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	reg, err := u.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.InvalidState("business information has not been submitted")
		}
		return nil, err
	}
	if reg.IsCompleted {
		return reg, nil
	}

	reg, err = u.provisioner.Provision(ctx, reg)
	if err != nil {
		return nil, err
	}

	if err := u.drafts.Delete(ctx, ownerID); err != nil {
		logger.Warn(ctx, "Failed to delete onboarding draft", zap.Error(err))
	}
	return reg, nil
}

// UpdateContact corrects the contact channel of a submitted registration
func (u *OnboardingUsecase) UpdateContact(ctx context.Context, ownerID uuid.UUID, input *entities.ContactUpdateInput) (*entities.Registration, error) {
	reg, err := u.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.InvalidState("registration has not been submitted")
		}
		return nil, err
	}
	return u.provisioner.UpdateContact(ctx, reg, input.ContactPhone, input.ContactEmail)
}

// Status returns the partner's payout status, asking the provider first when refresh is set
func (u *OnboardingUsecase) Status(ctx context.Context, ownerID uuid.UUID, refresh bool) (*entities.StatusSnapshot, error) {
	if refresh {
		return u.reconciler.Pull(ctx, ownerID)
	}
	return u.reconciler.Stored(ctx, ownerID)
}

// DashboardAccess decides whether the partner may enter the dashboard
func (u *OnboardingUsecase) DashboardAccess(ctx context.Context, ownerID uuid.UUID) (*entities.GateDecision, error) {
	return u.reconciler.Gate(ctx, ownerID, true)
}

// Summary returns the dashboard overview of a completed registration
func (u *OnboardingUsecase) Summary(ctx context.Context, ownerID uuid.UUID) (*entities.DashboardSummary, error) {
	reg, err := u.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	decision := EvaluateGate(reg)
	return &entities.DashboardSummary{
		BusinessKind:        reg.BusinessKind,
		LegalName:           reg.LegalName,
		RepresentativeName:  reg.RepresentativeName,
		ContactEmail:        reg.ContactEmail,
		ContactPhone:        reg.ContactPhone,
		BankName:            reg.BankName,
		MaskedAccountNumber: reg.MaskedAccountNumber(),
		ExternalStatus:      reg.ExternalStatus,
		PayoutEnabled:       decision.PayoutEnabled,
		SubmittedAt:         reg.UpdatedAt,
	}, nil
}

func (u *OnboardingUsecase) findRegistration(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	reg, err := u.regRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

func (u *OnboardingUsecase) openRegistration(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	reg, err := u.findRegistration(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, domainerrors.InvalidState("business information has not been submitted")
	}
	if reg.IsCompleted {
		return nil, domainerrors.InvalidState("registration has already been submitted")
	}
	return reg, nil
}

func (u *OnboardingUsecase) updateDraft(ctx context.Context, ownerID uuid.UUID, fn func(*entities.OnboardingDraft)) error {
	draft, err := u.drafts.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if draft == nil {
		draft = &entities.OnboardingDraft{OwnerID: ownerID}
	}
	fn(draft)
	return u.drafts.Save(ctx, draft)
}

func nextStep(reg *entities.Registration) int {
	switch {
	case reg == nil:
		return 1
	case reg.IsCompleted:
		return 0
	case reg.Step >= 2:
		return 3
	default:
		return 2
	}
}
