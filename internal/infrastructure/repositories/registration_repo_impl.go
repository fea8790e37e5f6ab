package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/models"
	"partner-portal.backend/pkg/utils"
)

// RegistrationRepository implements partner registration data operations
type RegistrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts the skeleton row written at step 1
func (r *RegistrationRepository) Create(ctx context.Context, reg *entities.Registration) error {
	if reg.ID == uuid.Nil {
		reg.ID = utils.GenerateUUIDv7()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	if reg.ExternalStatus == "" {
		reg.ExternalStatus = entities.ExternalStatusNotSubmitted
	}

	m := r.toModel(reg)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("registration already exists: %w", domainerrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByOwnerID gets the registration of a partner
func (r *RegistrationRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

// GetByExternalSellerID gets a registration by the provider-assigned seller id
func (r *RegistrationRepository) GetByExternalSellerID(ctx context.Context, sellerID string) (*entities.Registration, error) {
	return r.first(ctx, "external_seller_id = ?", sellerID)
}

// FindByRegistrationNumber gets the registration claiming a business number
func (r *RegistrationRepository) FindByRegistrationNumber(ctx context.Context, number string) (*entities.Registration, error) {
	return r.first(ctx, "registration_number = ?", number)
}

// FindCompletedByRepresentative finds another partner's completed registration for a (name, phone) identity
func (r *RegistrationRepository) FindCompletedByRepresentative(ctx context.Context, name string, phones []string, excludeOwnerID uuid.UUID) (*entities.Registration, error) {
	if len(phones) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return r.first(ctx, "representative_name = ? AND contact_phone IN ? AND is_completed = ? AND owner_id <> ?", name, phones, true, excludeOwnerID)
}

// UpdateDetails writes wizard fields. Status columns and the seller id are left alone.
func (r *RegistrationRepository) UpdateDetails(ctx context.Context, reg *entities.Registration) error {
	reg.UpdatedAt = time.Now().UTC()
	updates := map[string]interface{}{
		"business_kind":       string(reg.BusinessKind),
		"legal_name":          reg.LegalName,
		"representative_name": reg.RepresentativeName,
		"registration_number": reg.RegistrationNumber.Ptr(),
		"open_date":           reg.OpenDate.Ptr(),
		"contact_phone":       reg.ContactPhone,
		"contact_email":       reg.ContactEmail,
		"bank_name":           reg.BankName,
		"bank_code":           reg.BankCode,
		"account_number":      reg.AccountNumber,
		"account_holder":      reg.AccountHolder,
		"step":                reg.Step,
		"updated_at":          reg.UpdatedAt,
	}

	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Registration{}).Where("id = ?", reg.ID).Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("registration number already claimed: %w", domainerrors.ErrConflict)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateContact replaces the contact channel after a successful provider update
func (r *RegistrationRepository) UpdateContact(ctx context.Context, id uuid.UUID, phone, email string) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Registration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"contact_phone": phone,
		"contact_email": email,
		"updated_at":    time.Now().UTC(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ClaimProvisioning takes the provisioning claim with a conditional UPDATE so
// only one request at a time calls the provider for a registration
func (r *RegistrationRepository) ClaimProvisioning(ctx context.Context, id uuid.UUID, expiredBefore time.Time) (bool, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND external_seller_id IS NULL AND (provision_claimed_at IS NULL OR provision_claimed_at < ?)", id, expiredBefore.UTC()).
		UpdateColumn("provision_claimed_at", time.Now().UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReleaseProvisioning drops the claim of a row that is still unbound
func (r *RegistrationRepository) ReleaseProvisioning(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND external_seller_id IS NULL", id).
		UpdateColumn("provision_claimed_at", nil).Error
}

// MarkProvisioned records the seller id and completes the wizard
func (r *RegistrationRepository) MarkProvisioned(ctx context.Context, id uuid.UUID, sellerID string) error {
	db := GetDB(ctx, r.db).WithContext(ctx)
	result := db.Model(&models.Registration{}).
		Where("id = ? AND (external_seller_id IS NULL OR external_seller_id = ?)", id, sellerID).
		Updates(map[string]interface{}{
			"external_seller_id":   sellerID,
			"step":                 3,
			"is_completed":         true,
			"provision_claimed_at": nil,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("seller id already bound: %w", domainerrors.ErrConflict)
		}
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if err := r.exists(db, id); err != nil {
		return err
	}
	return fmt.Errorf("registration bound to another seller: %w", domainerrors.ErrConflict)
}

// MarkStatusChecked stamps the last provider pull. Status columns and
// updated_at are left alone.
func (r *RegistrationRepository) MarkStatusChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).WithContext(ctx).Model(&models.Registration{}).
		Where("id = ?", id).
		UpdateColumn("status_checked_at", at.UTC()).Error
}

// UpdateExternalStatus writes the status columns in one UPDATE statement
func (r *RegistrationRepository) UpdateExternalStatus(ctx context.Context, write entities.StatusWrite) (bool, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	updates := map[string]interface{}{
		"external_status":     string(write.Status),
		"external_status_raw": write.Raw,
		"updated_at":          time.Now().UTC(),
	}
	if write.ChangedAt.Valid {
		updates["external_status_at"] = write.ChangedAt.Time.UTC()
	}

	query := db.Model(&models.Registration{}).Where("id = ?", write.RegistrationID)
	if write.RejectOlder && write.ChangedAt.Valid {
		query = query.Where("(external_status_at IS NULL OR external_status_at <= ?)", write.ChangedAt.Time.UTC())
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	if err := r.exists(db, write.RegistrationID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *RegistrationRepository) exists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Registration{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListStale lists completed registrations in the given states that were neither
// written nor pulled since before, least recently checked first
func (r *RegistrationRepository) ListStale(ctx context.Context, statuses []entities.ExternalStatus, before time.Time, limit int) ([]*entities.Registration, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	var rows []models.Registration
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("is_completed = ? AND external_seller_id IS NOT NULL AND external_status IN ?", true, values).
		Where("updated_at < ? AND (status_checked_at IS NULL OR status_checked_at < ?)", before.UTC(), before.UTC()).
		Order("COALESCE(status_checked_at, updated_at) ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Registration, 0, len(rows))
	for i := range rows {
		out = append(out, r.toEntity(&rows[i]))
	}
	return out, nil
}

func (r *RegistrationRepository) first(ctx context.Context, query string, args ...interface{}) (*entities.Registration, error) {
	var m models.Registration
	if err := GetDB(ctx, r.db).WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *RegistrationRepository) toModel(reg *entities.Registration) *models.Registration {
	return &models.Registration{
		ID:                 reg.ID,
		OwnerID:            reg.OwnerID,
		BusinessKind:       string(reg.BusinessKind),
		LegalName:          reg.LegalName,
		RepresentativeName: reg.RepresentativeName,
		RegistrationNumber: reg.RegistrationNumber.Ptr(),
		OpenDate:           reg.OpenDate.Ptr(),
		ContactPhone:       reg.ContactPhone,
		ContactEmail:       reg.ContactEmail,
		BankName:           reg.BankName,
		BankCode:           reg.BankCode,
		AccountNumber:      reg.AccountNumber,
		AccountHolder:      reg.AccountHolder,
		Step:               reg.Step,
		IsCompleted:        reg.IsCompleted,
		ExternalSellerID:   reg.ExternalSellerID.Ptr(),
		ExternalStatus:     string(reg.ExternalStatus),
		ExternalStatusRaw:  reg.ExternalStatusRaw,
		ExternalStatusAt:   reg.ExternalStatusAt.Ptr(),
		ProvisionClaimedAt: reg.ProvisionClaimedAt.Ptr(),
		StatusCheckedAt:    reg.StatusCheckedAt.Ptr(),
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
}

func (r *RegistrationRepository) toEntity(m *models.Registration) *entities.Registration {
	return &entities.Registration{
		ID:                 m.ID,
		OwnerID:            m.OwnerID,
		BusinessKind:       entities.BusinessKind(m.BusinessKind),
		LegalName:          m.LegalName,
		RepresentativeName: m.RepresentativeName,
		RegistrationNumber: null.StringFromPtr(m.RegistrationNumber),
		OpenDate:           null.StringFromPtr(m.OpenDate),
		ContactPhone:       m.ContactPhone,
		ContactEmail:       m.ContactEmail,
		BankName:           m.BankName,
		BankCode:           m.BankCode,
		AccountNumber:      m.AccountNumber,
		AccountHolder:      m.AccountHolder,
		Step:               m.Step,
		IsCompleted:        m.IsCompleted,
		ExternalSellerID:   null.StringFromPtr(m.ExternalSellerID),
		ExternalStatus:     entities.ExternalStatus(m.ExternalStatus),
		ExternalStatusRaw:  m.ExternalStatusRaw,
		ExternalStatusAt:   null.TimeFromPtr(m.ExternalStatusAt),
		ProvisionClaimedAt: null.TimeFromPtr(m.ProvisionClaimedAt),
		StatusCheckedAt:    null.TimeFromPtr(m.StatusCheckedAt),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
