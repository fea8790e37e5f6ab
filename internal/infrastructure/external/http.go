// Package external holds the transport plumbing shared by the clients of
// external verification and payout services.
package external

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	domainerrors "partner-portal.backend/internal/domain/errors"
)

const maxBodyBytes = 1 << 20

// NewHTTPClient returns a client bounded by timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Do sends req and reads the whole response body. Transport failures come back
// as *domainerrors.ExternalError of kind timeout or unavailable.
func Do(client *http.Client, service string, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, TransportError(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, TransportError(service, err)
	}
	return resp.StatusCode, body, nil
}

// TransportError classifies a network-level failure
func TransportError(service string, err error) error {
	kind := domainerrors.ErrExternalUnavailable
	if IsTimeout(err) {
		kind = domainerrors.ErrTimeout
	}
	return &domainerrors.ExternalError{Service: service, Kind: kind, Err: err}
}

// ProtocolError reports a response that could not be interpreted
func ProtocolError(service string, status int, err error) error {
	return &domainerrors.ExternalError{Service: service, Kind: domainerrors.ErrProtocol, HTTPStatus: status, Err: err}
}

// IsTimeout reports deadline and network timeouts
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Outcome labels an external call result for metrics
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerrors.ErrTimeout):
		return "timeout"
	case errors.Is(err, domainerrors.ErrConflict):
		return "conflict"
	case errors.Is(err, domainerrors.ErrExternalRejected):
		return "rejected"
	case errors.Is(err, domainerrors.ErrProtocol):
		return "protocol"
	case errors.Is(err, domainerrors.ErrExternalUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
