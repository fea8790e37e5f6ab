package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/businessregistry"
	"partner-portal.backend/internal/infrastructure/provider"
	"partner-portal.backend/internal/usecases"
)

type onboardingFixture struct {
	uc       *usecases.OnboardingUsecase
	repo     *memRegistrationRepo
	drafts   *memDraftRepo
	users    *MockUserRepository
	api      *MockSellerAPI
	lookup   *MockHolderLookup
	registry *MockBusinessRegistry
}

func newOnboardingFixture(regs ...*entities.Registration) *onboardingFixture {
	f := &onboardingFixture{
		repo:     newMemRegistrationRepo(regs...),
		drafts:   newMemDraftRepo(),
		users:    new(MockUserRepository),
		api:      new(MockSellerAPI),
		lookup:   new(MockHolderLookup),
		registry: new(MockBusinessRegistry),
	}
	f.api.On("Configured").Return(true)

	uow := new(MockUnitOfWork)
	uow.On("Do", mock.Anything, mock.Anything).Return(nil)

	guard := usecases.NewIdentityGuard(f.repo, f.users, nil)
	reconciler := usecases.NewStatusReconciler(f.repo, f.api, false, nil)
	f.uc = usecases.NewOnboardingUsecase(
		f.repo,
		f.drafts,
		guard,
		usecases.NewBankVerifier(f.lookup),
		usecases.NewBusinessVerifier(f.registry, guard, time.Second),
		usecases.NewSellerProvisioner(f.api, f.repo, uow, reconciler, guard),
		reconciler,
	)
	return f
}

func individualStep1() *entities.Step1Input {
	return &entities.Step1Input{
		BusinessKind:       entities.BusinessKindIndividual,
		RepresentativeName: "Kim",
		ContactPhone:       "01011112222",
		ContactEmail:       "kim@partner.kr",
	}
}

func TestOnboarding_IndividualHappyPath(t *testing.T) {
	f := newOnboardingFixture()
	ctx := context.Background()
	owner := uuid.New()

	view, err := f.uc.GetOnboarding(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, view.NextStep)
	assert.Nil(t, view.Registration)

	reg, err := f.uc.SubmitStep1(ctx, owner, individualStep1())
	require.NoError(t, err)
	assert.Equal(t, "010-1111-2222", reg.ContactPhone)
	assert.Equal(t, 1, reg.Step)

	f.lookup.On("LookupHolder", mock.Anything, "088", "110123456789").Return("KIM", nil).Once()
	holder, err := f.uc.VerifyBank(ctx, owner, &entities.BankVerifyInput{BankName: "신한은행", AccountNumber: "110-123-456789"})
	require.NoError(t, err)
	assert.Equal(t, "KIM", holder.HolderName)

	view, err = f.uc.GetOnboarding(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, view.NextStep)
	require.NotNil(t, view.Draft)
	assert.Equal(t, "신한은행", view.Draft.VerifiedBankName)

	reg, err = f.uc.SubmitStep2(ctx, owner, &entities.Step2Input{BankName: "신한", AccountNumber: "110123456789", AccountHolder: "kim"})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Step)
	assert.Equal(t, "088", reg.BankCode)
	assert.Equal(t, "KIM", reg.AccountHolder)

	f.api.On("CreateSeller", mock.Anything, mock.Anything).Return(&provider.Seller{ID: "seller_1", Status: "APPROVAL_REQUIRED"}, nil).Once()
	reg, err = f.uc.SubmitStep3(ctx, owner)
	require.NoError(t, err)
	assert.True(t, reg.IsCompleted)
	assert.Equal(t, entities.ExternalStatusApprovalRequired, reg.ExternalStatus)

	draft, err := f.drafts.Get(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, draft)

	again, err := f.uc.SubmitStep3(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "seller_1", again.ExternalSellerID.String)
	f.api.AssertNumberOfCalls(t, "CreateSeller", 1)

	f.api.On("GetSeller", mock.Anything, "seller_1").Return(&provider.Seller{ID: "seller_1", Status: "APPROVAL_REQUIRED"}, nil).Once()
	decision, err := f.uc.DashboardAccess(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, usecases.RedirectComplete, decision.RedirectTo)
}

func TestOnboarding_Step1DuplicateIndividual(t *testing.T) {
	existingOwner := uuid.New()
	f := newOnboardingFixture(completedIndividual(existingOwner, "Kim", "010-1111-2222", "kim@partner.kr"))
	f.users.On("GetByID", mock.Anything, existingOwner).Return(&entities.User{ID: existingOwner, Email: "kim@partner.kr", AuthProvider: entities.AuthProviderKakao}, nil)

	_, err := f.uc.SubmitStep1(context.Background(), uuid.New(), individualStep1())
	require.ErrorIs(t, err, domainerrors.ErrConflict)
	appErr := domainerrors.FromError(err)
	assert.Equal(t, "k**@partner.kr", appErr.Details["maskedEmail"])
	assert.Equal(t, "Kakao", appErr.Details["origin"])
}

func TestOnboarding_Step1BusinessRequiresVerification(t *testing.T) {
	f := newOnboardingFixture()
	ctx := context.Background()
	owner := uuid.New()
	input := &entities.Step1Input{
		BusinessKind:       entities.BusinessKindCorporate,
		LegalName:          "Partner Co",
		RepresentativeName: "Kim",
		RegistrationNumber: "1234567890",
		ContactPhone:       "02-123-4567",
		ContactEmail:       "ceo@corp.kr",
	}

	_, err := f.uc.SubmitStep1(ctx, owner, input)
	require.ErrorIs(t, err, domainerrors.ErrInvalidState)

	f.registry.On("Validate", mock.Anything, mock.Anything).Return(&businessregistry.Result{
		Matched:   true,
		LegalName: "(주)파트너",
	}, nil).Once()
	verified, err := f.uc.VerifyBusiness(ctx, owner, &entities.BusinessVerifyInput{
		RegistrationNumber: "123-45-67890",
		LegalName:          "Partner Co",
		RepresentativeName: "Kim",
		OpenDate:           "20200101",
	})
	require.NoError(t, err)
	require.True(t, verified.Verified)

	reg, err := f.uc.SubmitStep1(ctx, owner, input)
	require.NoError(t, err)
	assert.Equal(t, "(주)파트너", reg.LegalName)
	assert.Equal(t, "1234567890", reg.RegistrationNumber.String)
	assert.Equal(t, "20200101", reg.OpenDate.String)
	assert.Equal(t, "02-123-4567", reg.ContactPhone)
}

func TestOnboarding_Step1Validation(t *testing.T) {
	f := newOnboardingFixture()
	ctx := context.Background()

	bad := individualStep1()
	bad.BusinessKind = "llc"
	_, err := f.uc.SubmitStep1(ctx, uuid.New(), bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	bad = individualStep1()
	bad.ContactPhone = "12345"
	_, err = f.uc.SubmitStep1(ctx, uuid.New(), bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	bad = individualStep1()
	bad.RepresentativeName = "  "
	_, err = f.uc.SubmitStep1(ctx, uuid.New(), bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestOnboarding_Step1AfterCompletion(t *testing.T) {
	done := provisionedRegistration("seller_1", entities.ExternalStatusApproved)
	f := newOnboardingFixture(done)

	_, err := f.uc.SubmitStep1(context.Background(), done.OwnerID, individualStep1())
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}

func TestOnboarding_Step2Guards(t *testing.T) {
	f := newOnboardingFixture()
	ctx := context.Background()
	owner := uuid.New()
	step2 := &entities.Step2Input{BankName: "신한", AccountNumber: "110123456789", AccountHolder: "Kim"}

	_, err := f.uc.SubmitStep2(ctx, owner, step2)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState, "step 1 missing")

	_, err = f.uc.SubmitStep1(ctx, owner, individualStep1())
	require.NoError(t, err)

	_, err = f.uc.SubmitStep2(ctx, owner, step2)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState, "account not verified")

	f.lookup.On("LookupHolder", mock.Anything, "088", "110123456789").Return("Lee", nil).Once()
	_, err = f.uc.VerifyBank(ctx, owner, &entities.BankVerifyInput{BankName: "신한", AccountNumber: "110123456789"})
	require.NoError(t, err)

	_, err = f.uc.SubmitStep2(ctx, owner, step2)
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "holder mismatch")

	other := *step2
	other.AccountNumber = "110123456780"
	other.AccountHolder = "Lee"
	_, err = f.uc.SubmitStep2(ctx, owner, &other)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState, "a different account than the verified one")

	other = *step2
	other.BankName = "Bank of Nowhere"
	_, err = f.uc.SubmitStep2(ctx, owner, &other)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestOnboarding_Step3ProviderFailureKeepsDraft(t *testing.T) {
	reg := readyRegistration(entities.BusinessKindIndividual)
	f := newOnboardingFixture(reg)
	ctx := context.Background()
	require.NoError(t, f.drafts.Save(ctx, &entities.OnboardingDraft{
		OwnerID:         reg.OwnerID,
		VerifiedAccount: &entities.VerifiedAccount{BankCode: "088", AccountNumber: reg.AccountNumber, HolderName: "Kim"},
	}))
	f.api.On("CreateSeller", mock.Anything, mock.Anything).Return(nil, &domainerrors.ExternalError{
		Service: "provider",
		Kind:    domainerrors.ErrTimeout,
		Err:     errors.New("deadline exceeded"),
	}).Once()
	f.api.On("FindSellerByRef", mock.Anything, reg.ID.String()).Return(nil, &domainerrors.ExternalError{
		Service: "provider",
		Kind:    domainerrors.ErrNotFound,
	}).Once()

	_, err := f.uc.SubmitStep3(ctx, reg.OwnerID)
	require.ErrorIs(t, err, domainerrors.ErrTimeout)

	draft, err := f.drafts.Get(ctx, reg.OwnerID)
	require.NoError(t, err)
	assert.NotNil(t, draft)
	assert.False(t, f.repo.snapshot(reg.ID).IsCompleted)

	_, err = f.uc.SubmitStep3(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}

func TestOnboarding_UpdateContact(t *testing.T) {
	reg := provisionedRegistration("seller_1", entities.ExternalStatusApproved)
	f := newOnboardingFixture(reg)
	f.api.On("UpdateSeller", mock.Anything, "seller_1", mock.Anything).Return(&provider.Seller{ID: "seller_1", Status: "APPROVED"}, nil).Once()

	out, err := f.uc.UpdateContact(context.Background(), reg.OwnerID, &entities.ContactUpdateInput{ContactPhone: "031-123-4567"})
	require.NoError(t, err)
	assert.Equal(t, "031-123-4567", out.ContactPhone)
	assert.Equal(t, "kim@partner.kr", out.ContactEmail)

	_, err = f.uc.UpdateContact(context.Background(), uuid.New(), &entities.ContactUpdateInput{ContactPhone: "031-123-4567"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}

func TestOnboarding_StatusAndSummary(t *testing.T) {
	reg := provisionedRegistration("seller_1", entities.ExternalStatusKYCRequired)
	reg.BankName = "신한은행"
	reg.AccountNumber = "110123456789"
	f := newOnboardingFixture(reg)
	ctx := context.Background()

	stored, err := f.uc.Status(ctx, reg.OwnerID, false)
	require.NoError(t, err)
	assert.False(t, stored.Refreshed)
	assert.Equal(t, entities.ExternalStatusKYCRequired, stored.ExternalStatus)
	f.api.AssertNotCalled(t, "GetSeller", mock.Anything, mock.Anything)

	f.api.On("GetSeller", mock.Anything, "seller_1").Return(&provider.Seller{ID: "seller_1", Status: "APPROVED"}, nil).Once()
	pulled, err := f.uc.Status(ctx, reg.OwnerID, true)
	require.NoError(t, err)
	assert.True(t, pulled.Refreshed)
	assert.Equal(t, entities.ExternalStatusApproved, pulled.ExternalStatus)

	summary, err := f.uc.Summary(ctx, reg.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "********6789", summary.MaskedAccountNumber)
	assert.True(t, summary.PayoutEnabled)
	assert.Equal(t, entities.ExternalStatusApproved, summary.ExternalStatus)
}
