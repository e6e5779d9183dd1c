// Package ddclient provides the main entry point for creating DevDraft API clients
package ddclient

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/devdraft/saligen/internal/client"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// New creates a new DevDraft API client. A base URL without a scheme is
// assumed to be https.
func New(config *devdraft.Config) (devdraft.Client, error) {
	if config == nil {
		return nil, devdraft.ErrConfigRequired
	}

	cfg := *config
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)

	c, err := client.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return strings.TrimRight(baseURL, "/")
}

// NewWithAPIKey creates a new client authenticating with an API key.
func NewWithAPIKey(baseURL, apiKey string) (devdraft.Client, error) {
	config := devdraft.DefaultConfig(baseURL)
	config.APIKey = apiKey

	return New(config)
}

// NewWithToken creates a new client authenticating with a bearer token.
func NewWithToken(baseURL, token string) (devdraft.Client, error) {
	config := devdraft.DefaultConfig(baseURL)
	config.BearerToken = token

	return New(config)
}

// NewIdempotencyKey returns a random key suitable for the Idempotency-Key header.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// Viper keys read by ConfigFromViper.
const (
	KeyBaseURL     = "base_url"
	KeyAPIKey      = "api_key"
	KeyBearerToken = "bearer_token"
	KeyTimeout     = "timeout"
	KeyMaxRetries  = "max_retries"
	KeyUserAgent   = "user_agent"
	KeyHeaders     = "headers"
	KeyDebug       = "debug"
)

// ConfigFromViper builds a Config from viper settings. A bare number for
// timeout is read as seconds; duration strings such as "30s" are also
// accepted. max_retries defaults to devdraft.DefaultMaxRetries when unset.
func ConfigFromViper(v *viper.Viper) (*devdraft.Config, error) {
	config := &devdraft.Config{
		BaseURL:       v.GetString(KeyBaseURL),
		APIKey:        v.GetString(KeyAPIKey),
		BearerToken:   v.GetString(KeyBearerToken),
		MaxRetries:    devdraft.DefaultMaxRetries,
		UserAgent:     v.GetString(KeyUserAgent),
		CustomHeaders: v.GetStringMapString(KeyHeaders),
		Debug:         v.GetBool(KeyDebug),
	}

	if v.IsSet(KeyTimeout) {
		timeout, err := parseTimeout(v.GetString(KeyTimeout))
		if err != nil {
			return nil, err
		}

		config.Timeout = timeout
	}

	if v.IsSet(KeyMaxRetries) {
		config.MaxRetries = v.GetInt(KeyMaxRetries)
	}

	return config, nil
}

func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}

	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q", devdraft.ErrInvalidConfig, value)
	}

	return timeout, nil
}
