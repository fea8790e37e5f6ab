package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"partner-portal.backend/internal/domain/entities"
)

// RegistrationRepository defines partner registration data operations
type RegistrationRepository interface {
	Create(ctx context.Context, reg *entities.Registration) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error)
	GetByExternalSellerID(ctx context.Context, sellerID string) (*entities.Registration, error)
	// FindByRegistrationNumber returns any row claiming the number, completed or not.
	FindByRegistrationNumber(ctx context.Context, number string) (*entities.Registration, error)
	// FindCompletedByRepresentative matches other owners' completed rows on name and any of the phone forms.
	FindCompletedByRepresentative(ctx context.Context, name string, phones []string, excludeOwnerID uuid.UUID) (*entities.Registration, error)
	// UpdateDetails writes the wizard fields and step; it never touches status columns.
	UpdateDetails(ctx context.Context, reg *entities.Registration) error
	UpdateContact(ctx context.Context, id uuid.UUID, phone, email string) error
	// ClaimProvisioning marks an unbound row as being sent to the provider. It
	// returns false when the row is bound or another claim newer than expiredBefore holds it.
	ClaimProvisioning(ctx context.Context, id uuid.UUID, expiredBefore time.Time) (bool, error)
	ReleaseProvisioning(ctx context.Context, id uuid.UUID) error
	// MarkProvisioned binds sellerID and completes the row. A row bound to a
	// different seller yields ErrConflict.
	MarkProvisioned(ctx context.Context, id uuid.UUID, sellerID string) error
	// UpdateExternalStatus is a single-row atomic write; it reports whether a row changed.
	UpdateExternalStatus(ctx context.Context, write entities.StatusWrite) (bool, error)
	// MarkStatusChecked records a status pull without touching the status columns.
	MarkStatusChecked(ctx context.Context, id uuid.UUID, at time.Time) error
	// ListStale returns rows neither written nor checked since before, least recently checked first.
	ListStale(ctx context.Context, statuses []entities.ExternalStatus, before time.Time, limit int) ([]*entities.Registration, error)
}

// UserRepository reads the partner accounts kept by the auth layer. Only the
// duplicate guard uses it, to build the masked-email hint.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// UnitOfWork runs fn in one transaction carried by ctx. Provisioning uses it to
// persist the seller id and the first status together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
