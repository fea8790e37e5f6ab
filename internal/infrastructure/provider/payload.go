package provider

import "github.com/volatiletech/null/v8"

// BusinessType is the provider's seller classification
type BusinessType string

const (
	BusinessTypeIndividual         BusinessType = "INDIVIDUAL"
	BusinessTypeIndividualBusiness BusinessType = "INDIVIDUAL_BUSINESS"
	BusinessTypeCorporate          BusinessType = "CORPORATE"
)

// IndividualInfo describes a seller without a business registration
type IndividualInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CompanyInfo describes a registered business
type CompanyInfo struct {
	Name                       string `json:"name"`
	RepresentativeName         string `json:"representativeName"`
	BusinessRegistrationNumber string `json:"businessRegistrationNumber"`
	Email                      string `json:"email"`
	Phone                      string `json:"phone"`
}

// AccountInfo is the payout account block shared by every seller shape
type AccountInfo struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	HolderName    string `json:"holderName"`
}

// SellerPayload is the create/update body. Exactly one of Individual and
// Company is set; use NewIndividualSeller or NewBusinessSeller to build it.
type SellerPayload struct {
	RefSellerID  string          `json:"refSellerId"`
	BusinessType BusinessType    `json:"businessType"`
	Individual   *IndividualInfo `json:"individual,omitempty"`
	Company      *CompanyInfo    `json:"company,omitempty"`
	Account      AccountInfo     `json:"account"`
}

// NewIndividualSeller builds the INDIVIDUAL shape
func NewIndividualSeller(refSellerID string, info IndividualInfo, account AccountInfo) *SellerPayload {
	return &SellerPayload{
		RefSellerID:  refSellerID,
		BusinessType: BusinessTypeIndividual,
		Individual:   &info,
		Account:      account,
	}
}

// NewBusinessSeller builds the CORPORATE or INDIVIDUAL_BUSINESS shape
func NewBusinessSeller(refSellerID string, businessType BusinessType, info CompanyInfo, account AccountInfo) *SellerPayload {
	return &SellerPayload{
		RefSellerID:  refSellerID,
		BusinessType: businessType,
		Company:      &info,
		Account:      account,
	}
}

// Seller is the provider's view of a seller
type Seller struct {
	ID           string       `json:"id"`
	RefSellerID  string       `json:"refSellerId"`
	BusinessType BusinessType `json:"businessType"`
	Status       string       `json:"status"`
	// StatusChangedAt is the provider's statusChangedAt, falling back to updatedAt.
	StatusChangedAt null.Time `json:"-"`
	// Raw keeps every field the provider returned, for diagnostics.
	Raw map[string]any `json:"-"`
}

type envelopeResponse struct {
	Version    string         `json:"version"`
	TraceID    string         `json:"traceId"`
	EntityBody map[string]any `json:"entityBody"`
	Error      *apiError      `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
