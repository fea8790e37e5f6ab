package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrValidation          = errors.New("invalid input")
	ErrConflict            = errors.New("already registered")
	ErrInvalidState        = errors.New("invalid state")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrExternalRejected    = errors.New("rejected by external provider")
	ErrExternalUnavailable = errors.New("external provider unavailable")
	ErrProtocol            = errors.New("could not interpret provider response")

	// ErrTimeout is also an ErrExternalUnavailable.
	ErrTimeout = fmt.Errorf("external provider timed out: %w", ErrExternalUnavailable)
)

// Error codes returned to API clients
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "ALREADY_REGISTERED"
	CodeInvalidState        = "INVALID_STATE"
	CodeInProgress          = "IN_PROGRESS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeExternalRejected    = "PROVIDER_REJECTED"
	CodeExternalUnavailable = "PROVIDER_UNAVAILABLE"
	CodeTimeout             = "PROVIDER_TIMEOUT"
	CodeProtocol            = "PROVIDER_PROTOCOL_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a user-facing detail and returns the same error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// ExternalError is a failed call to an external service. Kind is one of
// ErrExternalRejected, ErrConflict, ErrExternalUnavailable, ErrTimeout or ErrProtocol.
type ExternalError struct {
	Service    string
	Kind       error
	HTTPStatus int
	Code       string
	Message    string
	// Fields lists the input categories the service most likely objected to.
	Fields []string
	Err    error
}

func (e *ExternalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Code != "" {
		b.WriteString(" [" + e.Code + "]")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ExternalError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func Validation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrValidation)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeInvalidState, message, ErrInvalidState)
}

// InProgress is an invalid-state error the client can resolve by retrying later
func InProgress(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeInProgress, message, ErrInvalidState)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// FromError maps any error onto the API taxonomy. AppErrors pass through untouched.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	mapped := mapSentinel(err)
	var extErr *ExternalError
	if errors.As(err, &extErr) && len(extErr.Fields) > 0 {
		mapped.WithDetail("fields", extErr.Fields)
	}
	return mapped
}

func mapSentinel(err error) *AppError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewAppError(http.StatusBadRequest, CodeInvalidInput, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, "resource not found", err)
	case errors.Is(err, ErrConflict):
		return NewAppError(http.StatusConflict, CodeConflict, "already registered", err)
	case errors.Is(err, ErrInvalidState):
		return NewAppError(http.StatusConflict, CodeInvalidState, err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized", err)
	case errors.Is(err, ErrExternalRejected):
		return NewAppError(http.StatusUnprocessableEntity, CodeExternalRejected, "the provider rejected the request", err)
	case errors.Is(err, ErrTimeout):
		return NewAppError(http.StatusGatewayTimeout, CodeTimeout, "the provider did not respond in time, please try again later", err)
	case errors.Is(err, ErrExternalUnavailable):
		return NewAppError(http.StatusServiceUnavailable, CodeExternalUnavailable, "the provider is unavailable, please try again later", err)
	case errors.Is(err, ErrProtocol):
		return NewAppError(http.StatusBadGateway, CodeProtocol, "please try again later", err)
	default:
		return InternalError(err)
	}
}
