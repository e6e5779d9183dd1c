package devdraft_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdraft/saligen/pkg/devdraft"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNormalizeResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		header    http.Header
		body      string
		message   string
		code      string
		requestID string
		details   string
	}{
		{
			name:    "no body",
			status:  502,
			message: "Request failed with status 502",
		},
		{
			name:    "non-json body",
			status:  500,
			body:    "<html>Internal Server Error</html>",
			message: "Request failed with status 500",
		},
		{
			name:    "empty object",
			status:  400,
			body:    `{}`,
			message: "Request failed with status 400",
		},
		{
			name:    "array body",
			status:  400,
			body:    `["bad"]`,
			message: "Request failed with status 400",
		},
		{
			name:      "full body",
			status:    422,
			body:      `{"message":"Invalid amount","code":"INVALID_AMOUNT","details":{"field":"amount"},"requestId":"req_1"}`,
			message:   "Invalid amount",
			code:      "INVALID_AMOUNT",
			requestID: "req_1",
			details:   "amount",
		},
		{
			name:    "object without message",
			status:  404,
			body:    `{"code":"NOT_FOUND"}`,
			message: "Request failed",
			code:    "NOT_FOUND",
		},
		{
			name:      "snake case request id",
			status:    409,
			body:      `{"message":"Conflict","request_id":"req_2"}`,
			message:   "Conflict",
			requestID: "req_2",
		},
		{
			name:      "request id header",
			status:    401,
			header:    http.Header{"X-Request-Id": {"req_hdr"}},
			body:      `{"message":"Unauthorized"}`,
			message:   "Unauthorized",
			requestID: "req_hdr",
		},
		{
			name:      "body request id wins over header",
			status:    401,
			header:    http.Header{"X-Request-Id": {"req_hdr"}},
			body:      `{"message":"Unauthorized","requestId":"req_body"}`,
			message:   "Unauthorized",
			requestID: "req_body",
		},
		{
			name:    "numeric code",
			status:  400,
			body:    `{"message":"Bad","code":1001}`,
			message: "Bad",
			code:    "1001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			apiErr := devdraft.NormalizeResponse(tt.status, tt.header, []byte(tt.body))

			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.requestID, apiErr.RequestID)
			assert.Equal(t, tt.details, apiErr.Details.Get("field").Text())
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	apiErr := &devdraft.APIError{Message: "Invalid amount", Status: 422, Code: "INVALID_AMOUNT", RequestID: "req_1"}
	assert.Equal(t, "Invalid amount (status=422) (code=INVALID_AMOUNT) (request_id=req_1)", apiErr.Error())

	minimal := &devdraft.APIError{Message: "Request failed with status 500", Status: 500}
	assert.Equal(t, "Request failed with status 500 (status=500)", minimal.Error())
}

func TestFixedCodeFailures(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")

	transport := devdraft.NewTransportFailure(cause)
	assert.Equal(t, devdraft.CodeHTTPError, transport.Code)
	assert.Zero(t, transport.Status)
	require.ErrorIs(t, transport, cause)
	assert.True(t, devdraft.IsTransportError(transport))

	unexpected := devdraft.NewUnexpectedFailure(cause)
	assert.Equal(t, devdraft.CodeUnexpectedError, unexpected.Code)
	assert.False(t, devdraft.IsTransportError(unexpected))

	exhausted := devdraft.NewMaxRetriesExceeded(nil)
	assert.Equal(t, devdraft.CodeMaxRetriesExceeded, exhausted.Code)
	assert.Equal(t, "Max retries exceeded (code=MAX_RETRIES_EXCEEDED)", exhausted.Error())
	assert.True(t, devdraft.IsRetriesExhausted(exhausted))

	canceled := devdraft.NewTransportFailure(context.Canceled)
	require.ErrorIs(t, canceled, context.Canceled)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("listing customers: %w", devdraft.NormalizeResponse(404, nil, nil))

	apiErr, ok := devdraft.AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)

	assert.True(t, devdraft.IsNotFound(wrapped))
	assert.False(t, devdraft.IsUnauthorized(wrapped))
	assert.True(t, devdraft.IsUnauthorized(devdraft.NormalizeResponse(401, nil, nil)))
	assert.True(t, devdraft.IsForbidden(devdraft.NormalizeResponse(403, nil, nil)))
	assert.True(t, devdraft.IsRateLimited(devdraft.NormalizeResponse(429, nil, nil)))

	_, ok = devdraft.AsAPIError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, devdraft.IsNotFound(nil))
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("i/o timeout")
	err := &devdraft.TransportError{Op: "GET", URL: "https://api.devdraft.ai/v1/x", Err: cause}

	assert.Equal(t, "GET https://api.devdraft.ai/v1/x: i/o timeout", err.Error())
	require.ErrorIs(t, err, cause)
}
