package client

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/devdraft/saligen/internal/auth"
	"github.com/devdraft/saligen/internal/constants"
	ddhttp "github.com/devdraft/saligen/internal/http"
	"github.com/devdraft/saligen/internal/retry"
	"github.com/devdraft/saligen/pkg/devdraft"
)

const tracerName = "github.com/devdraft/saligen"

// Client implements the devdraft.Client interface.
type Client struct {
	baseURL      string
	headers      http.Header
	transport    devdraft.Transport
	engine       *retry.Engine
	interceptors *devdraft.InterceptorChain
	cache        *devdraft.CacheManager
	cacheTTL     time.Duration
	cacheScope   string
	tracer       trace.Tracer
	logger       devdraft.Logger
}

// Ensure Client implements the interface
var _ devdraft.Client = (*Client)(nil)

// New creates a client from config. The config is copied; later changes to
// it do not affect the client.
func New(config *devdraft.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	cfg := config.WithDefaults()

	logger := cfg.Logger
	if logger == nil && cfg.Debug {
		logger = devdraft.NewZerologLogger(os.Stderr)
	}

	credentials := auth.Credentials{APIKey: cfg.APIKey, BearerToken: cfg.BearerToken}

	client := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		headers:      defaultHeaders(&cfg, credentials),
		transport:    cfg.Transport,
		engine:       retry.New(cfg.MaxRetries, createEngineOptions(&cfg, logger)...),
		interceptors: cfg.Interceptors,
		cacheTTL:     cfg.CacheTTL,
		cacheScope:   scopeFor(cfg.BaseURL, credentials),
		tracer:       createTracer(cfg.TracerProvider),
		logger:       logger,
	}

	if client.transport == nil {
		client.transport = ddhttp.NewClient(createHTTPClientOptions(&cfg, logger)...)
	}

	if cfg.Cache != nil {
		client.cache = devdraft.NewCacheManager(cfg.Cache, &devdraft.CacheOptions{DefaultTTL: cfg.CacheTTL})
	}

	return client, nil
}

// createHTTPClientOptions builds transport options from config.
func createHTTPClientOptions(cfg *devdraft.Config, logger devdraft.Logger) []ddhttp.Option {
	httpOpts := []ddhttp.Option{
		ddhttp.WithHTTPClient(cfg.HTTPClient),
		ddhttp.WithTimeout(cfg.Timeout),
	}

	if logger != nil {
		httpOpts = append(httpOpts, ddhttp.WithLogger(logger))
	}

	if cfg.Debug {
		httpOpts = append(httpOpts, ddhttp.WithDebug(true))
	}

	return httpOpts
}

func createEngineOptions(cfg *devdraft.Config, logger devdraft.Logger) []retry.Option {
	opts := []retry.Option{retry.WithWait(cfg.RetryWaitMin, cfg.RetryWaitMax)}

	if cfg.Debug && logger != nil {
		opts = append(opts, retry.WithLogger(logger))
	}

	return opts
}

func createTracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return provider.Tracer(tracerName, trace.WithInstrumentationVersion(constants.SDKVersion))
}

// defaultHeaders are sent on every request. Custom headers are applied last
// and win on collision.
func defaultHeaders(cfg *devdraft.Config, credentials auth.Credentials) http.Header {
	headers := http.Header{}
	headers.Set(constants.HeaderUserAgent, cfg.UserAgent)
	headers.Set(constants.HeaderSDKLanguage, constants.SDKLanguage)
	headers.Set(constants.HeaderSDKVersion, constants.SDKVersion)
	headers.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	credentials.Apply(headers)

	for key, value := range cfg.CustomHeaders {
		headers.Set(key, value)
	}

	return headers
}

// scopeFor keeps cache entries of different accounts and hosts apart when a
// cache backend is shared.
func scopeFor(baseURL string, credentials auth.Credentials) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + credentials.BearerToken + "\x00" + credentials.APIKey))

	return hex.EncodeToString(sum[:scopeLength])
}

const scopeLength = 8

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Headers returns a copy of the headers sent on every request.
func (c *Client) Headers() http.Header {
	return c.headers.Clone()
}

// MaxRetries returns the number of retries after the first attempt.
func (c *Client) MaxRetries() int {
	return c.engine.MaxRetries()
}

// CacheStats returns the response cache counters; ok is false without a cache.
func (c *Client) CacheStats() (devdraft.CacheStats, bool) {
	if c.cache == nil {
		return devdraft.CacheStats{}, false
	}

	return c.cache.GetStats(), true
}
