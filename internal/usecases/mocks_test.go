package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"partner-portal.backend/internal/domain/entities"
	"partner-portal.backend/internal/infrastructure/businessregistry"
	"partner-portal.backend/internal/infrastructure/provider"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock RegistrationRepository
type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Create(ctx context.Context, reg *entities.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRegistrationRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) GetByExternalSellerID(ctx context.Context, sellerID string) (*entities.Registration, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindByRegistrationNumber(ctx context.Context, number string) (*entities.Registration, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindCompletedByRepresentative(ctx context.Context, name string, phones []string, excludeOwnerID uuid.UUID) (*entities.Registration, error) {
	args := m.Called(ctx, name, phones, excludeOwnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) UpdateDetails(ctx context.Context, reg *entities.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRegistrationRepository) UpdateContact(ctx context.Context, id uuid.UUID, phone, email string) error {
	args := m.Called(ctx, id, phone, email)
	return args.Error(0)
}

func (m *MockRegistrationRepository) ClaimProvisioning(ctx context.Context, id uuid.UUID, expiredBefore time.Time) (bool, error) {
	args := m.Called(ctx, id, expiredBefore)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistrationRepository) ReleaseProvisioning(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistrationRepository) MarkStatusChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRegistrationRepository) MarkProvisioned(ctx context.Context, id uuid.UUID, sellerID string) error {
	args := m.Called(ctx, id, sellerID)
	return args.Error(0)
}

func (m *MockRegistrationRepository) UpdateExternalStatus(ctx context.Context, write entities.StatusWrite) (bool, error) {
	args := m.Called(ctx, write)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistrationRepository) ListStale(ctx context.Context, statuses []entities.ExternalStatus, updatedBefore time.Time, limit int) ([]*entities.Registration, error) {
	args := m.Called(ctx, statuses, updatedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Registration), args.Error(1)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// Mock DraftRepository
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Get(ctx context.Context, ownerID uuid.UUID) (*entities.OnboardingDraft, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.OnboardingDraft), args.Error(1)
}

func (m *MockDraftRepository) Save(ctx context.Context, draft *entities.OnboardingDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftRepository) Delete(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// Mock SellerAPI
type MockSellerAPI struct {
	mock.Mock
}

func (m *MockSellerAPI) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSellerAPI) CreateSeller(ctx context.Context, payload *provider.SellerPayload) (*provider.Seller, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Seller), args.Error(1)
}

func (m *MockSellerAPI) UpdateSeller(ctx context.Context, sellerID string, payload *provider.SellerPayload) (*provider.Seller, error) {
	args := m.Called(ctx, sellerID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Seller), args.Error(1)
}

func (m *MockSellerAPI) GetSeller(ctx context.Context, sellerID string) (*provider.Seller, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Seller), args.Error(1)
}

func (m *MockSellerAPI) FindSellerByRef(ctx context.Context, refSellerID string) (*provider.Seller, error) {
	args := m.Called(ctx, refSellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Seller), args.Error(1)
}

// Mock HolderLookup
type MockHolderLookup struct {
	mock.Mock
}

func (m *MockHolderLookup) LookupHolder(ctx context.Context, bankCode, accountNumber string) (string, error) {
	args := m.Called(ctx, bankCode, accountNumber)
	return args.String(0), args.Error(1)
}

// Mock BusinessRegistry
type MockBusinessRegistry struct {
	mock.Mock
}

func (m *MockBusinessRegistry) Validate(ctx context.Context, q businessregistry.Query) (*businessregistry.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*businessregistry.Result), args.Error(1)
}
