// Package bankaccount is the client of the account holder lookup service.
package bankaccount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/internal/infrastructure/external"
	"partner-portal.backend/internal/metrics"
)

const (
	serviceName = "bank_lookup"
	holderPath  = "/v1/accounts/holder"
)

// ErrNotConfigured is returned when the lookup service is not configured
var ErrNotConfigured = errors.New("bank lookup service not configured")

type holderRequest struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
}

type holderResponse struct {
	HolderName string `json:"holderName"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client looks up the registered holder of a bank account
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient creates a lookup client
func NewClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    external.NewHTTPClient(timeout),
		metrics: m,
	}
}

// LookupHolder returns the holder name on file for the account. One call per
// invocation; results are never cached.
func (c *Client) LookupHolder(ctx context.Context, bankCode, accountNumber string) (holder string, err error) {
	if c.baseURL == "" || c.apiKey == "" {
		return "", &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, Err: ErrNotConfigured}
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveExternalCall(serviceName, "lookup_holder", external.Outcome(err), time.Since(start))
	}()

	body, err := json.Marshal(holderRequest{BankCode: bankCode, AccountNumber: accountNumber})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+holderPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	status, respBody, err := external.Do(c.http, serviceName, req)
	if err != nil {
		return "", err
	}

	if status < 200 || status >= 300 {
		return "", classifyFailure(status, respBody)
	}

	var resp holderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", external.ProtocolError(serviceName, status, fmt.Errorf("decode response: %w", err))
	}
	if strings.TrimSpace(resp.HolderName) == "" {
		return "", external.ProtocolError(serviceName, status, errors.New("response is missing holderName"))
	}
	return resp.HolderName, nil
}

func classifyFailure(status int, body []byte) error {
	if status >= 500 || status == http.StatusTooManyRequests {
		return &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, HTTPStatus: status}
	}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return external.ProtocolError(serviceName, status, fmt.Errorf("unreadable error body: %w", err))
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &domainerrors.ExternalError{Service: serviceName, Kind: domainerrors.ErrExternalUnavailable, HTTPStatus: status, Code: resp.Code, Message: resp.Message}
	}
	return &domainerrors.ExternalError{
		Service:    serviceName,
		Kind:       domainerrors.ErrExternalRejected,
		HTTPStatus: status,
		Code:       resp.Code,
		Message:    resp.Message,
		Fields:     []string{"bank", "account"},
	}
}
