package devdraft

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/devdraft/saligen/internal/constants"
)

// Fixed error codes for failures that never produced a usable response.
const (
	// CodeHTTPError marks a transport-level failure (DNS, connect, TLS, timeout)
	// that persisted after all retries.
	CodeHTTPError = "HTTP_ERROR"

	// CodeUnexpectedError marks any other failure inside an attempt that
	// persisted after all retries.
	CodeUnexpectedError = "UNEXPECTED_ERROR"

	// CodeMaxRetriesExceeded marks a retry loop that ended without a terminal outcome.
	CodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
)

const defaultErrorMessage = "Request failed"

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrBaseURLRequired       = errors.New("base URL is required")
	ErrInvalidConfig         = errors.New("invalid config")
	ErrNoMoreItems           = errors.New("no more items")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("entry expired")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// APIError is the single error type surfaced by every request the SDK makes.
//
// Responses with a non-2xx status carry Status and whatever the body
// described. Failures that never produced a response carry one of the fixed
// codes (CodeHTTPError, CodeUnexpectedError, CodeMaxRetriesExceeded), no
// Status, and the underlying failure as Cause.
type APIError struct {
	Message   string `json:"message"             yaml:"message"`
	Status    int    `json:"status,omitempty"    yaml:"status,omitempty"`
	Code      string `json:"code,omitempty"      yaml:"code,omitempty"`
	Details   Value  `json:"details,omitempty"   yaml:"details,omitempty"`
	RequestID string `json:"requestId,omitempty" yaml:"requestId,omitempty"`

	// Body is the full parsed error body, Null when there was none.
	Body Value `json:"-" yaml:"-"`

	// Cause is the failure behind a fixed-code error.
	Cause error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	parts := []string{e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("(status=%d)", e.Status))
	}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("(code=%s)", e.Code))
	}

	if e.RequestID != "" {
		parts = append(parts, fmt.Sprintf("(request_id=%s)", e.RequestID))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying failure, if any.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// TransportError is a failure of the Transport to complete an exchange:
// DNS, connect, TLS, timeout, or a broken body stream.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NormalizeResponse builds the APIError for a non-2xx response.
//
// When the body is a non-empty JSON object its message, code, details and
// request id fields are used, with the message defaulting to "Request failed".
// Otherwise the message is synthesized from the status and nothing else is set.
func NormalizeResponse(status int, header http.Header, body []byte) *APIError {
	parsed := ParseBody(body)

	if parsed.Kind() != KindObject || parsed.Len() == 0 {
		return &APIError{
			Message: fmt.Sprintf("Request failed with status %d", status),
			Status:  status,
		}
	}

	apiErr := &APIError{
		Message: defaultErrorMessage,
		Status:  status,
		Body:    parsed,
	}

	if msg, ok := parsed.Get("message").Str(); ok {
		apiErr.Message = msg
	}

	apiErr.Code = parsed.Get("code").Text()
	apiErr.Details = parsed.Get("details")

	switch {
	case parsed.Get("requestId").Text() != "":
		apiErr.RequestID = parsed.Get("requestId").Text()
	case parsed.Get("request_id").Text() != "":
		apiErr.RequestID = parsed.Get("request_id").Text()
	case header != nil:
		apiErr.RequestID = header.Get(constants.HeaderRequestID)
	}

	return apiErr
}

// NewTransportFailure wraps a transport failure that outlived its retries.
func NewTransportFailure(err error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("HTTP error: %v", err),
		Code:    CodeHTTPError,
		Cause:   err,
	}
}

// NewUnexpectedFailure wraps any other attempt failure that outlived its retries.
func NewUnexpectedFailure(err error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("Unexpected error: %v", err),
		Code:    CodeUnexpectedError,
		Cause:   err,
	}
}

// NewMaxRetriesExceeded reports a retry loop that ended without a terminal outcome.
func NewMaxRetriesExceeded(lastErr error) *APIError {
	return &APIError{
		Message: "Max retries exceeded",
		Code:    CodeMaxRetriesExceeded,
		Cause:   lastErr,
	}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsRateLimited checks if the error is a 429 response that outlived its retries.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

// IsTransportError checks if the error is a transport failure that outlived its retries.
func IsTransportError(err error) bool {
	apiErr, ok := AsAPIError(err)

	return ok && apiErr.Code == CodeHTTPError
}

// IsRetriesExhausted checks if the retry loop ended without a terminal outcome.
func IsRetriesExhausted(err error) bool {
	apiErr, ok := AsAPIError(err)

	return ok && apiErr.Code == CodeMaxRetriesExceeded
}

func hasStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)

	return ok && apiErr.Status == status
}
