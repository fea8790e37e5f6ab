package repositories

import (
	"context"

	"github.com/google/uuid"
	"partner-portal.backend/internal/domain/entities"
)

// DraftRepository stores uncommitted onboarding wizard state per partner
type DraftRepository interface {
	// Get returns nil, nil when the partner has no live draft.
	Get(ctx context.Context, ownerID uuid.UUID) (*entities.OnboardingDraft, error)
	Save(ctx context.Context, draft *entities.OnboardingDraft) error
	Delete(ctx context.Context, ownerID uuid.UUID) error
}
