package entities

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateCheckInput is either a registration number or a (name, phone) pair
type DuplicateCheckInput struct {
	RegistrationNumber string `json:"registrationNumber"`
	RepresentativeName string `json:"representativeName"`
	ContactPhone       string `json:"contactPhone"`
}

// DuplicateCheckResult is the guard's answer
type DuplicateCheckResult struct {
	Available   bool   `json:"available"`
	MaskedEmail string `json:"maskedEmail,omitempty"`
	Origin      string `json:"origin,omitempty"`
}

// BusinessVerifyInput is sent to the business registry
type BusinessVerifyInput struct {
	RegistrationNumber string `json:"registrationNumber" binding:"required"`
	LegalName          string `json:"legalName" binding:"required"`
	RepresentativeName string `json:"representativeName" binding:"required"`
	OpenDate           string `json:"openDate" binding:"required"`
}

// BusinessCanonicalFields are the registry's normalized view of a business
type BusinessCanonicalFields struct {
	RegistrationNumber string `json:"registrationNumber"`
	LegalName          string `json:"legalName"`
	RepresentativeName string `json:"representativeName"`
	OpenDate           string `json:"openDate"`
	BusinessStatus     string `json:"businessStatus,omitempty"`
	TaxType            string `json:"taxType,omitempty"`
}

// BusinessVerifyResult is returned by business identity verification
type BusinessVerifyResult struct {
	Verified        bool                     `json:"verified"`
	Reason          string                   `json:"reason,omitempty"`
	CanonicalFields *BusinessCanonicalFields `json:"canonicalFields,omitempty"`
}

// BankVerifyInput is sent to the bank holder lookup
type BankVerifyInput struct {
	BankName      string `json:"bankName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
}

// BankAccountHolder is the holder on file at the bank
type BankAccountHolder struct {
	BankName      string `json:"bankName"`
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"-"`
	HolderName    string `json:"holderName"`
}

// Step1Input carries the business information step
type Step1Input struct {
	BusinessKind       BusinessKind `json:"businessKind" binding:"required"`
	LegalName          string       `json:"legalName"`
	RepresentativeName string       `json:"representativeName" binding:"required"`
	RegistrationNumber string       `json:"registrationNumber"`
	OpenDate           string       `json:"openDate"`
	ContactPhone       string       `json:"contactPhone" binding:"required"`
	ContactEmail       string       `json:"contactEmail" binding:"required,email"`
}

// Step2Input carries the payout account step
type Step2Input struct {
	BankName      string `json:"bankName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	AccountHolder string `json:"accountHolder" binding:"required"`
}

// ContactUpdateInput corrects the contact channel after submission
type ContactUpdateInput struct {
	ContactPhone string `json:"contactPhone" binding:"required"`
	ContactEmail string `json:"contactEmail" binding:"omitempty,email"`
}

// OnboardingDraft is the server-side record of uncommitted wizard state
type OnboardingDraft struct {
	OwnerID          uuid.UUID                `json:"ownerId"`
	VerifiedBusiness *BusinessCanonicalFields `json:"verifiedBusiness,omitempty"`
	VerifiedAccount  *VerifiedAccount         `json:"verifiedAccount,omitempty"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// VerifiedAccount records a successful bank holder lookup
type VerifiedAccount struct {
	BankName      string    `json:"bankName"`
	BankCode      string    `json:"bankCode"`
	AccountNumber string    `json:"accountNumber"`
	HolderName    string    `json:"holderName"`
	VerifiedAt    time.Time `json:"verifiedAt"`
}

// OnboardingView is what GET /onboarding returns
type OnboardingView struct {
	Registration *Registration   `json:"registration,omitempty"`
	Draft        *DraftView      `json:"draft,omitempty"`
	NextStep     int             `json:"nextStep"`
	Status       *StatusSnapshot `json:"status,omitempty"`
}

// DraftView hides the raw account number of a draft
type DraftView struct {
	VerifiedBusiness *BusinessCanonicalFields `json:"verifiedBusiness,omitempty"`
	VerifiedBankName string                   `json:"verifiedBankName,omitempty"`
	VerifiedHolder   string                   `json:"verifiedHolder,omitempty"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// StatusSnapshot is the answer of a status pull
type StatusSnapshot struct {
	ExternalStatus    ExternalStatus `json:"externalStatus"`
	RawStatus         string         `json:"rawStatus,omitempty"`
	RawProviderFields map[string]any `json:"rawProviderFields,omitempty"`
	Refreshed         bool           `json:"refreshed"`
}

// GateAction is what the dashboard entry point may do
type GateAction string

const (
	GateAllow    GateAction = "allow"
	GateRedirect GateAction = "redirect"
)

// BannerKind is the banner rendered on top of the dashboard
type BannerKind string

const (
	BannerNone BannerKind = ""
	BannerKYC  BannerKind = "kyc-required"
	BannerInfo BannerKind = "status-unknown"
)

// GateDecision is the dashboard access decision for a partner
type GateDecision struct {
	Action            GateAction     `json:"action"`
	RedirectTo        string         `json:"redirectTo,omitempty"`
	Banner            BannerKind     `json:"banner,omitempty"`
	BannerDismissible bool           `json:"bannerDismissible"`
	PayoutEnabled     bool           `json:"payoutEnabled"`
	ExternalStatus    ExternalStatus `json:"externalStatus"`
}

// DashboardSummary is the registration overview shown on the dashboard
type DashboardSummary struct {
	BusinessKind        BusinessKind   `json:"businessKind"`
	LegalName           string         `json:"legalName"`
	RepresentativeName  string         `json:"representativeName"`
	ContactEmail        string         `json:"contactEmail"`
	ContactPhone        string         `json:"contactPhone"`
	BankName            string         `json:"bankName"`
	MaskedAccountNumber string         `json:"maskedAccountNumber"`
	ExternalStatus      ExternalStatus `json:"externalStatus"`
	PayoutEnabled       bool           `json:"payoutEnabled"`
	SubmittedAt         time.Time      `json:"submittedAt"`
}
