package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"partner-portal.backend/internal/domain/entities"
)

type onboardingServiceStub struct {
	checkDuplicateFn func(context.Context, uuid.UUID, *entities.DuplicateCheckInput) (*entities.DuplicateCheckResult, error)
	verifyBusinessFn func(context.Context, uuid.UUID, *entities.BusinessVerifyInput) (*entities.BusinessVerifyResult, error)
	verifyBankFn     func(context.Context, uuid.UUID, *entities.BankVerifyInput) (*entities.BankAccountHolder, error)
	getOnboardingFn  func(context.Context, uuid.UUID) (*entities.OnboardingView, error)
	step1Fn          func(context.Context, uuid.UUID, *entities.Step1Input) (*entities.Registration, error)
	step2Fn          func(context.Context, uuid.UUID, *entities.Step2Input) (*entities.Registration, error)
	step3Fn          func(context.Context, uuid.UUID) (*entities.Registration, error)
	updateContactFn  func(context.Context, uuid.UUID, *entities.ContactUpdateInput) (*entities.Registration, error)
	statusFn         func(context.Context, uuid.UUID, bool) (*entities.StatusSnapshot, error)
}

func (s onboardingServiceStub) CheckDuplicate(ctx context.Context, id uuid.UUID, in *entities.DuplicateCheckInput) (*entities.DuplicateCheckResult, error) {
	return s.checkDuplicateFn(ctx, id, in)
}

func (s onboardingServiceStub) VerifyBusiness(ctx context.Context, id uuid.UUID, in *entities.BusinessVerifyInput) (*entities.BusinessVerifyResult, error) {
	return s.verifyBusinessFn(ctx, id, in)
}

func (s onboardingServiceStub) VerifyBank(ctx context.Context, id uuid.UUID, in *entities.BankVerifyInput) (*entities.BankAccountHolder, error) {
	return s.verifyBankFn(ctx, id, in)
}

func (s onboardingServiceStub) GetOnboarding(ctx context.Context, id uuid.UUID) (*entities.OnboardingView, error) {
	return s.getOnboardingFn(ctx, id)
}

func (s onboardingServiceStub) SubmitStep1(ctx context.Context, id uuid.UUID, in *entities.Step1Input) (*entities.Registration, error) {
	return s.step1Fn(ctx, id, in)
}

func (s onboardingServiceStub) SubmitStep2(ctx context.Context, id uuid.UUID, in *entities.Step2Input) (*entities.Registration, error) {
	return s.step2Fn(ctx, id, in)
}

func (s onboardingServiceStub) SubmitStep3(ctx context.Context, id uuid.UUID) (*entities.Registration, error) {
	return s.step3Fn(ctx, id)
}

func (s onboardingServiceStub) UpdateContact(ctx context.Context, id uuid.UUID, in *entities.ContactUpdateInput) (*entities.Registration, error) {
	return s.updateContactFn(ctx, id, in)
}

func (s onboardingServiceStub) Status(ctx context.Context, id uuid.UUID, refresh bool) (*entities.StatusSnapshot, error) {
	return s.statusFn(ctx, id, refresh)
}

type dashboardServiceStub struct {
	accessFn  func(context.Context, uuid.UUID) (*entities.GateDecision, error)
	summaryFn func(context.Context, uuid.UUID) (*entities.DashboardSummary, error)
}

func (s dashboardServiceStub) DashboardAccess(ctx context.Context, id uuid.UUID) (*entities.GateDecision, error) {
	return s.accessFn(ctx, id)
}

func (s dashboardServiceStub) Summary(ctx context.Context, id uuid.UUID) (*entities.DashboardSummary, error) {
	return s.summaryFn(ctx, id)
}

type webhookServiceStub struct {
	applyFn func(ctx context.Context, sellerID, rawStatus string, changedAt null.Time) (*entities.Registration, error)
}

func (s webhookServiceStub) ApplyWebhook(ctx context.Context, sellerID, rawStatus string, changedAt null.Time) (*entities.Registration, error) {
	return s.applyFn(ctx, sellerID, rawStatus, changedAt)
}
