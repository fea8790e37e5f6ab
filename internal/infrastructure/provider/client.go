// Package provider is the client of the payout provider's seller API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/external"
	"partner-portal.backend/internal/metrics"
	"partner-portal.backend/pkg/envelope"
)

const serviceName = "provider"

// ErrNotConfigured is returned when provider credentials are missing
var ErrNotConfigured = errors.New("payout provider credentials not configured")

type transportMode int

const (
	modePlain transportMode = iota
	modeEncrypted
)

type endpoint struct {
	method string
	path   string
	mode   transportMode
}

const (
	opCreateSeller = "create_seller"
	opUpdateSeller = "update_seller"
	opGetSeller    = "get_seller"
	opFindByRef    = "find_seller_by_ref"
)

// endpoints decides per operation whether the body travels as a JWE envelope
var endpoints = map[string]endpoint{
	opCreateSeller: {method: http.MethodPost, path: "/v2/sellers", mode: modeEncrypted},
	opUpdateSeller: {method: http.MethodPost, path: "/v2/sellers/%s", mode: modeEncrypted},
	opGetSeller:    {method: http.MethodGet, path: "/v2/sellers/%s", mode: modePlain},
	opFindByRef:    {method: http.MethodGet, path: "/v2/sellers/ref/%s", mode: modePlain},
}

// codeDuplicateRef means a seller with our refSellerId already exists, which
// is our own earlier create landing
const codeDuplicateRef = "DUPLICATE_REF_SELLER_ID"

var duplicateCodes = map[string]bool{
	"ALREADY_EXISTS_SELLER":     true,
	"DUPLICATED_SELLER":         true,
	"ALREADY_REGISTERED_SELLER": true,
	codeDuplicateRef:            true,
}

// IsDuplicateRef reports whether err is the provider refusing a create because
// the refSellerId is already taken
func IsDuplicateRef(err error) bool {
	var extErr *domainerrors.ExternalError
	return errors.As(err, &extErr) && extErr.Service == serviceName && extErr.Code == codeDuplicateRef
}

// Client talks to the seller endpoints of the payout provider
type Client struct {
	baseURL   string
	secretKey string
	cipher    *envelope.Cipher
	http      *http.Client
	metrics   *metrics.Metrics
}

// NewClient creates a provider client. A nil cipher or empty credentials leave
// the client unconfigured; every call then fails with ErrNotConfigured.
func NewClient(baseURL, secretKey string, cipher *envelope.Cipher, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		cipher:    cipher,
		http:      external.NewHTTPClient(timeout),
		metrics:   m,
	}
}

// Configured reports whether calls can be made at all
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.secretKey != "" && c.cipher != nil
}

// CreateSeller registers a new seller
func (c *Client) CreateSeller(ctx context.Context, payload *SellerPayload) (*Seller, error) {
	return c.call(ctx, opCreateSeller, "", payload)
}

// UpdateSeller replaces the seller identified by sellerID
func (c *Client) UpdateSeller(ctx context.Context, sellerID string, payload *SellerPayload) (*Seller, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("seller id is required: %w", domainerrors.ErrValidation)
	}
	return c.call(ctx, opUpdateSeller, sellerID, payload)
}

// GetSeller reads the seller's current state
func (c *Client) GetSeller(ctx context.Context, sellerID string) (*Seller, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("seller id is required: %w", domainerrors.ErrValidation)
	}
	return c.call(ctx, opGetSeller, sellerID, nil)
}

// FindSellerByRef reads the seller registered under our reference id
func (c *Client) FindSellerByRef(ctx context.Context, refSellerID string) (*Seller, error) {
	if refSellerID == "" {
		return nil, fmt.Errorf("ref seller id is required: %w", domainerrors.ErrValidation)
	}
	return c.call(ctx, opFindByRef, refSellerID, nil)
}

func (c *Client) call(ctx context.Context, op, sellerID string, payload *SellerPayload) (seller *Seller, err error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveExternalCall(serviceName, op, external.Outcome(err), time.Since(start))
	}()

	ep := endpoints[op]
	path := ep.path
	if sellerID != "" {
		path = fmt.Sprintf(ep.path, url.PathEscape(sellerID))
	}

	var body []byte
	if payload != nil {
		plain, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal seller payload: %w", err)
		}
		body = plain
		if ep.mode == modeEncrypted {
			sealed, err := c.cipher.Seal(plain)
			if err != nil {
				return nil, fmt.Errorf("seal seller payload: %w", err)
			}
			body = []byte(sealed)
		}
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")
	if ep.mode == modeEncrypted {
		req.Header.Set("X-Api-Security-Mode", "ENCRYPTION")
		req.Header.Set("Content-Type", "text/plain")
	} else if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	status, respBody, err := external.Do(c.http, serviceName, req)
	if err != nil {
		return nil, err
	}

	opened, err := c.cipher.Open(respBody)
	if err != nil {
		return nil, external.ProtocolError(serviceName, status, err)
	}

	if status < 200 || status >= 300 {
		return nil, classifyFailure(status, opened)
	}
	return decodeSeller(status, opened)
}

func decodeSeller(status int, body []byte) (*Seller, error) {
	var resp envelopeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, external.ProtocolError(serviceName, status, fmt.Errorf("decode response: %w", err))
	}

	entity := resp.EntityBody
	if entity == nil {
		// some deployments answer with the bare entity
		if err := json.Unmarshal(body, &entity); err != nil || entity == nil {
			return nil, external.ProtocolError(serviceName, status, errors.New("response has no entity body"))
		}
	}

	seller := &Seller{Raw: entity}
	seller.ID, _ = entity["id"].(string)
	seller.RefSellerID, _ = entity["refSellerId"].(string)
	seller.Status, _ = entity["status"].(string)
	if bt, ok := entity["businessType"].(string); ok {
		seller.BusinessType = BusinessType(bt)
	}
	seller.StatusChangedAt = statusTime(entity)

	if seller.ID == "" {
		return nil, external.ProtocolError(serviceName, status, errors.New("response is missing the seller id"))
	}
	return seller, nil
}

func classifyFailure(status int, body []byte) error {
	var resp envelopeResponse
	apiErr := &apiError{}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		apiErr = resp.Error
	} else if err := json.Unmarshal(body, apiErr); err != nil {
		if status >= 500 {
			return &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, HTTPStatus: status}
		}
		return external.ProtocolError(serviceName, status, fmt.Errorf("unreadable error body: %w", err))
	}

	extErr := &domainerrors.ExternalError{
		Service:    serviceName,
		HTTPStatus: status,
		Code:       apiErr.Code,
		Message:    apiErr.Message,
	}

	switch {
	case status == http.StatusConflict || duplicateCodes[apiErr.Code]:
		extErr.Kind = domainerrors.ErrConflict
	case status == http.StatusTooManyRequests || status >= 500:
		extErr.Kind = domainerrors.ErrExternalUnavailable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// our credentials are wrong; nothing the partner can fix
		extErr.Kind = domainerrors.ErrExternalUnavailable
	default:
		extErr.Kind = domainerrors.ErrExternalRejected
		extErr.Fields = likelyFields(apiErr.Code, apiErr.Message)
	}
	return extErr
}

// statusTime is the provider's own time for the current status, if it sent one
func statusTime(entity map[string]any) null.Time {
	for _, key := range []string{"statusChangedAt", "updatedAt"} {
		raw, ok := entity[key].(string)
		if !ok || raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return null.TimeFrom(t.UTC())
		}
	}
	return null.Time{}
}

var fieldHints = []struct {
	field string
	hints []string
}{
	{"bank", []string{"BANK", "은행"}},
	{"account", []string{"ACCOUNT", "계좌"}},
	{"accountHolder", []string{"HOLDER", "예금주"}},
	{"registrationNumber", []string{"BUSINESS_REGISTRATION", "REGISTRATION_NUMBER", "사업자"}},
	{"representativeName", []string{"REPRESENTATIVE", "대표자"}},
	{"phone", []string{"PHONE", "전화", "휴대폰"}},
	{"email", []string{"EMAIL", "이메일"}},
}

// likelyFields guesses which input categories a rejection refers to
func likelyFields(code, message string) []string {
	haystack := strings.ToUpper(code) + " " + message
	var fields []string
	for _, fh := range fieldHints {
		for _, h := range fh.hints {
			if strings.Contains(haystack, h) {
				fields = append(fields, fh.field)
				break
			}
		}
	}
	return fields
}
