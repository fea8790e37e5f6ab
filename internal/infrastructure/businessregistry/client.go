// Package businessregistry is the client of the national business registry's
// validation API.
package businessregistry

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

	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/external"
	"partner-portal.backend/internal/metrics"
)

const (
	serviceName  = "business_registry"
	validatePath = "/validate"

	validMatch    = "01"
	statusActive  = "01"
	statusSuspend = "02"
	statusClosed  = "03"
)

// Reasons a business fails verification
const (
	ReasonMismatch  = "mismatch"
	ReasonClosed    = "closed"
	ReasonSuspended = "suspended"
)

// ErrNotConfigured is returned when the registry is not configured
var ErrNotConfigured = errors.New("business registry not configured")

// Query is one business to validate
type Query struct {
	RegistrationNumber string
	OpenDate           string
	RepresentativeName string
	LegalName          string
}

// Result is the registry's answer for one business
type Result struct {
	Matched            bool
	Reason             string
	RegistrationNumber string
	LegalName          string
	RepresentativeName string
	OpenDate           string
	BusinessStatus     string
	TaxType            string
}

type validateRequest struct {
	Businesses []businessParam `json:"businesses"`
}

type businessParam struct {
	BNo     string `json:"b_no"`
	StartDt string `json:"start_dt"`
	PNm     string `json:"p_nm"`
	BNm     string `json:"b_nm,omitempty"`
}

type validateResponse struct {
	StatusCode string          `json:"status_code"`
	ValidCnt   int             `json:"valid_cnt"`
	Data       []validateEntry `json:"data"`
}

type validateEntry struct {
	BNo          string        `json:"b_no"`
	Valid        string        `json:"valid"`
	ValidMsg     string        `json:"valid_msg"`
	RequestParam businessParam `json:"request_param"`
	Status       *statusEntry  `json:"status"`
}

type statusEntry struct {
	BStt    string `json:"b_stt"`
	BSttCd  string `json:"b_stt_cd"`
	TaxType string `json:"tax_type"`
	EndDt   string `json:"end_dt"`
}

// Client validates business identities
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a registry client
func NewClient(baseURL, serviceKey string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		http:       external.NewHTTPClient(timeout),
		metrics:    m,
	}
}

// Validate checks that the registration number, open date and representative
// belong together and that the business is not closed.
func (c *Client) Validate(ctx context.Context, q Query) (result *Result, err error) {
	if c.baseURL == "" || c.serviceKey == "" {
		return nil, &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, Err: ErrNotConfigured}
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveExternalCall(serviceName, "validate", external.Outcome(err), time.Since(start))
	}()

	body, err := json.Marshal(validateRequest{Businesses: []businessParam{{
		BNo:     q.RegistrationNumber,
		StartDt: q.OpenDate,
		PNm:     q.RepresentativeName,
		BNm:     q.LegalName,
	}}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + validatePath + "?serviceKey=" + url.QueryEscape(c.serviceKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, respBody, err := external.Do(c.http, serviceName, req)
	if err != nil {
		return nil, err
	}
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, HTTPStatus: status}
	}
	if status != http.StatusOK {
		return nil, external.ProtocolError(serviceName, status, fmt.Errorf("unexpected status %d", status))
	}

	var resp validateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, external.ProtocolError(serviceName, status, fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode != "OK" || len(resp.Data) == 0 {
		return nil, external.ProtocolError(serviceName, status, fmt.Errorf("registry answered %q with %d entries", resp.StatusCode, len(resp.Data)))
	}

	return toResult(q, resp.Data[0]), nil
}

func toResult(q Query, entry validateEntry) *Result {
	r := &Result{
		RegistrationNumber: q.RegistrationNumber,
		LegalName:          q.LegalName,
		RepresentativeName: q.RepresentativeName,
		OpenDate:           q.OpenDate,
	}
	if entry.RequestParam.PNm != "" {
		r.RepresentativeName = entry.RequestParam.PNm
	}
	if entry.RequestParam.BNm != "" {
		r.LegalName = entry.RequestParam.BNm
	}
	if entry.Status != nil {
		r.BusinessStatus = entry.Status.BStt
		r.TaxType = entry.Status.TaxType
	}

	if entry.Valid != validMatch {
		r.Reason = ReasonMismatch
		return r
	}
	if entry.Status != nil {
		switch entry.Status.BSttCd {
		case statusClosed:
			r.Reason = ReasonClosed
			return r
		case statusSuspend:
			r.Reason = ReasonSuspended
			return r
		}
	}
	r.Matched = true
	return r
}
