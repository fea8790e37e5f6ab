package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// BusinessKind represents the legal shape of a partner
type BusinessKind string

const (
	BusinessKindIndividual     BusinessKind = "individual"
	BusinessKindCorporate      BusinessKind = "corporate"
	BusinessKindSoleProprietor BusinessKind = "sole_proprietor"
)

// Valid reports whether the kind is one of the supported values
func (k BusinessKind) Valid() bool {
	switch k {
	case BusinessKindIndividual, BusinessKindCorporate, BusinessKindSoleProprietor:
		return true
	}
	return false
}

// RequiresRegistrationNumber is true for every kind except individuals
func (k BusinessKind) RequiresRegistrationNumber() bool {
	return k == BusinessKindCorporate || k == BusinessKindSoleProprietor
}

// ExternalStatus is the normalized seller status reported by the payout provider
type ExternalStatus string

const (
	ExternalStatusNotSubmitted      ExternalStatus = "not-submitted"
	ExternalStatusApprovalRequired  ExternalStatus = "approval-required"
	ExternalStatusKYCRequired       ExternalStatus = "kyc-required"
	ExternalStatusPartiallyApproved ExternalStatus = "partially-approved"
	ExternalStatusApproved          ExternalStatus = "approved"
	ExternalStatusOther             ExternalStatus = "other"
)

// ParseExternalStatus normalizes a provider status string. Both the provider's
// SCREAMING_SNAKE form and the local kebab form are accepted; anything else is Other.
func ParseExternalStatus(raw string) ExternalStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	switch ExternalStatus(s) {
	case ExternalStatusNotSubmitted,
		ExternalStatusApprovalRequired,
		ExternalStatusKYCRequired,
		ExternalStatusPartiallyApproved,
		ExternalStatusApproved:
		return ExternalStatus(s)
	}
	return ExternalStatusOther
}

// Registration is one partner's onboarding progress and provider status
type Registration struct {
	ID                 uuid.UUID      `json:"id"`
	OwnerID            uuid.UUID      `json:"ownerId"`
	BusinessKind       BusinessKind   `json:"businessKind"`
	LegalName          string         `json:"legalName"`
	RepresentativeName string         `json:"representativeName"`
	RegistrationNumber null.String    `json:"registrationNumber"`
	OpenDate           null.String    `json:"openDate"`
	ContactPhone       string         `json:"contactPhone"`
	ContactEmail       string         `json:"contactEmail"`
	BankName           string         `json:"bankName"`
	BankCode           string         `json:"bankCode"`
	AccountNumber      string         `json:"-"`
	AccountHolder      string         `json:"accountHolder"`
	Step               int            `json:"step"`
	IsCompleted        bool           `json:"isCompleted"`
	ExternalSellerID   null.String    `json:"externalSellerId"`
	ExternalStatus     ExternalStatus `json:"externalStatus"`
	ExternalStatusRaw  string         `json:"externalStatusRaw"`
	ExternalStatusAt   null.Time      `json:"externalStatusAt"`
	ProvisionClaimedAt null.Time      `json:"-"`
	StatusCheckedAt    null.Time      `json:"-"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// MaskedAccountNumber keeps only the last four digits visible
func (r *Registration) MaskedAccountNumber() string {
	n := len(r.AccountNumber)
	if n <= 4 {
		return r.AccountNumber
	}
	return strings.Repeat("*", n-4) + r.AccountNumber[n-4:]
}

// StatusWrite is a single write to a Registration's external status
type StatusWrite struct {
	RegistrationID uuid.UUID
	Status         ExternalStatus
	Raw            string
	ChangedAt      null.Time
	// RejectOlder makes the store skip the write when a newer change time is stored.
	RejectOlder bool
}

// StatusSource identifies the channel a status write came from
type StatusSource string

const (
	StatusSourceProvision StatusSource = "provision"
	StatusSourceWebhook   StatusSource = "webhook"
	StatusSourcePull      StatusSource = "pull"
)
