// Package auth decides which credential header a request carries.
package auth

import (
	"net/http"

	"github.com/devdraft/saligen/internal/constants"
)

// Scheme names the credential a client authenticates with.
type Scheme string

const (
	SchemeNone   Scheme = "none"
	SchemeBearer Scheme = "bearer"
	SchemeAPIKey Scheme = "api_key"
)

// Credentials holds a bearer token and an API key. The token wins when both
// are set; exactly one credential header is ever sent.
type Credentials struct {
	APIKey      string
	BearerToken string
}

// Scheme reports which credential Apply sends.
func (c Credentials) Scheme() Scheme {
	switch {
	case c.BearerToken != "":
		return SchemeBearer
	case c.APIKey != "":
		return SchemeAPIKey
	default:
		return SchemeNone
	}
}

// Apply sets the credential header on header and removes the other one.
func (c Credentials) Apply(header http.Header) {
	switch c.Scheme() {
	case SchemeBearer:
		header.Set(constants.HeaderAuthorization, "Bearer "+c.BearerToken)
		header.Del(constants.HeaderAPIKey)
	case SchemeAPIKey:
		header.Set(constants.HeaderAPIKey, c.APIKey)
		header.Del(constants.HeaderAuthorization)
	case SchemeNone:
	}
}

// Redacted returns a printable form of the active credential.
func (c Credentials) Redacted() string {
	var secret string

	switch c.Scheme() {
	case SchemeBearer:
		secret = c.BearerToken
	case SchemeAPIKey:
		secret = c.APIKey
	case SchemeNone:
		return ""
	}

	if len(secret) <= redactKeep*2 {
		return "****"
	}

	return secret[:redactKeep] + "****" + secret[len(secret)-redactKeep:]
}

const redactKeep = 4
