package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/interfaces/http/middleware"
	"partner-portal.backend/internal/interfaces/http/response"
)

// OnboardingService is the onboarding wizard as seen by the HTTP layer
type OnboardingService interface {
	CheckDuplicate(ctx context.Context, ownerID uuid.UUID, input *entities.DuplicateCheckInput) (*entities.DuplicateCheckResult, error)
	VerifyBusiness(ctx context.Context, ownerID uuid.UUID, input *entities.BusinessVerifyInput) (*entities.BusinessVerifyResult, error)
	VerifyBank(ctx context.Context, ownerID uuid.UUID, input *entities.BankVerifyInput) (*entities.BankAccountHolder, error)
	GetOnboarding(ctx context.Context, ownerID uuid.UUID) (*entities.OnboardingView, error)
	SubmitStep1(ctx context.Context, ownerID uuid.UUID, input *entities.Step1Input) (*entities.Registration, error)
	SubmitStep2(ctx context.Context, ownerID uuid.UUID, input *entities.Step2Input) (*entities.Registration, error)
	SubmitStep3(ctx context.Context, ownerID uuid.UUID) (*entities.Registration, error)
	UpdateContact(ctx context.Context, ownerID uuid.UUID, input *entities.ContactUpdateInput) (*entities.Registration, error)
	Status(ctx context.Context, ownerID uuid.UUID, refresh bool) (*entities.StatusSnapshot, error)
}

// OnboardingHandler handles the seller registration wizard
type OnboardingHandler struct {
	onboarding OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboarding OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

// CheckDuplicate reports whether an identity is already registered by another partner
// POST /api/v1/onboarding/duplicate-check
func (h *OnboardingHandler) CheckDuplicate(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.DuplicateCheckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	result, err := h.onboarding.CheckDuplicate(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VerifyBusiness checks a business number against the registry
// POST /api/v1/onboarding/business/verify
func (h *OnboardingHandler) VerifyBusiness(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.BusinessVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	result, err := h.onboarding.VerifyBusiness(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VerifyBank looks up the holder of a payout account
// POST /api/v1/onboarding/bank/verify
func (h *OnboardingHandler) VerifyBank(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.BankVerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	holder, err := h.onboarding.VerifyBank(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, holder)
}

// GetOnboarding returns the registration and draft of the current partner
// GET /api/v1/onboarding
func (h *OnboardingHandler) GetOnboarding(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	view, err := h.onboarding.GetOnboarding(c.Request.Context(), partnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitStep1 saves business information
// POST /api/v1/onboarding/step1
func (h *OnboardingHandler) SubmitStep1(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.Step1Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	reg, err := h.onboarding.SubmitStep1(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}

// SubmitStep2 saves the payout account
// POST /api/v1/onboarding/step2
func (h *OnboardingHandler) SubmitStep2(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.Step2Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	reg, err := h.onboarding.SubmitStep2(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}

// SubmitStep3 provisions the seller with the payout provider
// POST /api/v1/onboarding/step3
func (h *OnboardingHandler) SubmitStep3(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	reg, err := h.onboarding.SubmitStep3(c.Request.Context(), partnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"registration":     reg,
		"externalSellerId": reg.ExternalSellerID.String,
		"externalStatus":   reg.ExternalStatus,
	})
}

// UpdateContact corrects the contact channel of a provisioned seller
// PUT /api/v1/onboarding/contact
func (h *OnboardingHandler) UpdateContact(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	var input entities.ContactUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error()))
		return
	}

	reg, err := h.onboarding.UpdateContact(c.Request.Context(), partnerID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": reg})
}

// GetStatus pulls the provider status. ?refresh=false returns the stored value.
// GET /api/v1/onboarding/status
func (h *OnboardingHandler) GetStatus(c *gin.Context) {
	partnerID, ok := requirePartner(c)
	if !ok {
		return
	}

	refresh := true
	if raw := c.Query("refresh"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, domainerrors.Validation("refresh must be a boolean"))
			return
		}
		refresh = parsed
	}

	snapshot, err := h.onboarding.Status(c.Request.Context(), partnerID, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

func requirePartner(c *gin.Context) (uuid.UUID, bool) {
	partnerID, ok := middleware.GetPartnerID(c)
	if !ok || partnerID == uuid.Nil {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return uuid.Nil, false
	}
	return partnerID, true
}
