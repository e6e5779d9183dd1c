package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devdraft/saligen/internal/auth"
)

func TestCredentials_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		creds      auth.Credentials
		wantScheme auth.Scheme
		wantAuth   string
		wantAPIKey string
	}{
		{
			name:       "bearer only",
			creds:      auth.Credentials{BearerToken: "tok"},
			wantScheme: auth.SchemeBearer,
			wantAuth:   "Bearer tok",
		},
		{
			name:       "api key only",
			creds:      auth.Credentials{APIKey: "key"},
			wantScheme: auth.SchemeAPIKey,
			wantAPIKey: "key",
		},
		{
			name:       "bearer wins over api key",
			creds:      auth.Credentials{APIKey: "key", BearerToken: "tok"},
			wantScheme: auth.SchemeBearer,
			wantAuth:   "Bearer tok",
		},
		{
			name:       "neither",
			creds:      auth.Credentials{},
			wantScheme: auth.SchemeNone,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			header := http.Header{}
			testCase.creds.Apply(header)

			assert.Equal(t, testCase.wantScheme, testCase.creds.Scheme())
			assert.Equal(t, testCase.wantAuth, header.Get("Authorization"))
			assert.Equal(t, testCase.wantAPIKey, header.Get("X-API-Key"))
		})
	}
}

func TestCredentials_ApplyReplacesStaleHeader(t *testing.T) {
	t.Parallel()

	header := http.Header{"X-Api-Key": []string{"old"}}
	auth.Credentials{BearerToken: "tok"}.Apply(header)

	assert.Empty(t, header.Get("X-API-Key"))
	assert.Equal(t, "Bearer tok", header.Get("Authorization"))
}

func TestCredentials_Redacted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sk_l****6789", auth.Credentials{APIKey: "sk_live_123456789"}.Redacted())
	assert.Equal(t, "****", auth.Credentials{BearerToken: "short"}.Redacted())
	assert.Empty(t, auth.Credentials{}.Redacted())
}
