package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/models"
)

// userHintColumns is all the duplicate guard reads from an account
var userHintColumns = []string{"id", "email", "name", "auth_provider", "created_at", "updated_at"}

// UserRepository reads partner accounts. The table belongs to the auth layer,
// so nothing here writes to it.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID gets a live (not soft-deleted) account
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	err := GetDB(ctx, r.db).WithContext(ctx).
		Select(userHintColumns).
		Where("id = ?", id).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return userToEntity(&m), nil
}

func userToEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		AuthProvider: entities.AuthProvider(m.AuthProvider),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
