package models

import (
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OwnerID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	BusinessKind       string    `gorm:"type:varchar(32);not null"`
	LegalName          string    `gorm:"type:varchar(255)"`
	RepresentativeName string    `gorm:"type:varchar(100);not null;index:idx_registration_representative"`
	RegistrationNumber *string   `gorm:"type:varchar(10);uniqueIndex"`
	OpenDate           *string   `gorm:"type:varchar(8)"`
	ContactPhone       string    `gorm:"type:varchar(20);not null;index:idx_registration_representative"`
	ContactEmail       string    `gorm:"type:varchar(255);not null"`
	BankName           string    `gorm:"type:varchar(50)"`
	BankCode           string    `gorm:"type:varchar(3)"`
	AccountNumber      string    `gorm:"type:varchar(20)"`
	AccountHolder      string    `gorm:"type:varchar(100)"`
	Step               int       `gorm:"not null;default:0"`
	IsCompleted        bool      `gorm:"not null;default:false"`
	ExternalSellerID   *string   `gorm:"type:varchar(64);uniqueIndex"`
	ExternalStatus     string    `gorm:"type:varchar(32);not null;default:'not-submitted'"`
	ExternalStatusRaw  string    `gorm:"type:varchar(64)"`
	ExternalStatusAt   *time.Time
	ProvisionClaimedAt *time.Time
	StatusCheckedAt    *time.Time `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Registration) TableName() string {
	return "partner_registrations"
}
