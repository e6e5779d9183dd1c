package devdraft

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/devdraft/saligen/internal/constants"
)

// Version is the SDK version reported in the X-SDK-Version header.
const Version = constants.SDKVersion

// Requester issues one logical call: build, authenticate, retry, normalize.
type Requester interface {
	Do(ctx context.Context, method, path string, opts *RequestOptions) (Value, error)
}

// Getter is the read operation pagination iterators are built on.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (Value, error)
}

// VerbClient provides the convenience HTTP verbs.
type VerbClient interface {
	Getter
	Post(ctx context.Context, path string, body interface{}, idempotencyKey string) (Value, error)
	Put(ctx context.Context, path string, body interface{}) (Value, error)
	Patch(ctx context.Context, path string, body interface{}) (Value, error)
	Delete(ctx context.Context, path string) (Value, error)
}

// PaginationClient provides lazy and eager iteration over paginated endpoints.
type PaginationClient interface {
	PaginateCursor(ctx context.Context, path string, query url.Values, opts *CursorOptions) *CursorIterator
	PaginatePage(ctx context.Context, path string, query url.Values, opts *PageOptions) *PageIterator
	GetAllCursor(ctx context.Context, path string, query url.Values, opts *CursorOptions) ([]Value, error)
	GetAllPage(ctx context.Context, path string, query url.Values, opts *PageOptions) ([]Value, error)
}

// Client is the DevDraft API client.
type Client interface {
	Requester
	VerbClient
	PaginationClient
}

// RequestOptions carries the optional parts of a logical call.
type RequestOptions struct {
	// Query is merged into any query string already present in the path.
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body interface{}
	// Headers override the client's default headers on key collision.
	Headers map[string]string
}

// Request is one physical request handed to a Transport. Interceptors may
// modify it before it is sent.
type Request struct {
	Method string
	// Path is the caller-supplied path, URL the joined absolute URL without Query.
	Path     string
	URL      string
	Query    url.Values
	Headers  http.Header
	Body     []byte
	Attempt  int
	Metadata map[string]interface{}
}

// Response is what a Transport returns for one physical request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Transport performs exactly one physical HTTP exchange. Implementations
// should report network failures as *TransportError so the retry engine can
// classify them; they must not retry on their own.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a devdraft.Client.
//
// # Authentication precedence
//
// BearerToken, when set, is sent as "Authorization: Bearer <token>" and
// APIKey is ignored. Otherwise APIKey is sent as the X-API-Key header.
// Without either, requests are sent unauthenticated.
//
// # Timeouts and retries
//
// Timeout bounds each attempt, not the whole retry sequence; use the context
// passed to each call to cap total latency. Failed attempts with status 429,
// 500, 502, 503 or 504, and transport failures, are retried up to MaxRetries
// times. The wait before retry n (0-based) is the Retry-After header when the
// server sent one, otherwise min(RetryWaitMin*2^n, RetryWaitMax).
//
// The client copies the Config when it is constructed; later changes to the
// struct have no effect on an existing client.
type Config struct {
	// BaseURL: base URL every request path is joined to (required).
	BaseURL string `validate:"required,url"`
	// APIKey: sent as X-API-Key when no BearerToken is set.
	APIKey string
	// BearerToken: sent as a Bearer Authorization header. Wins over APIKey.
	BearerToken string

	// Timeout: connect/read timeout of one attempt. Defaults to 15s.
	Timeout time.Duration `validate:"gte=0"`
	// MaxRetries: retries after the first attempt. Zero makes exactly one
	// attempt per call; DefaultConfig and the ddclient constructors start
	// from DefaultMaxRetries.
	MaxRetries int `validate:"gte=0"`
	// RetryWaitMin: exponential backoff unit. Defaults to 1s.
	RetryWaitMin time.Duration `validate:"gte=0"`
	// RetryWaitMax: exponential backoff cap. Defaults to 8s.
	RetryWaitMax time.Duration `validate:"gte=0"`

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// CustomHeaders: sent on every request; override built-in headers on collision.
	CustomHeaders map[string]string
	// Debug: emit one timestamped line per attempt and per response status.
	Debug bool
	// Logger: destination of debug lines. A zerolog console logger writing to
	// stderr is used when Debug is set and Logger is nil.
	Logger Logger

	// HTTPClient: underlying client of the default Transport. Its Timeout is
	// overwritten with Timeout.
	HTTPClient *http.Client
	// Transport: replaces the default Transport entirely.
	Transport Transport
	// Interceptors: run around every attempt.
	Interceptors *InterceptorChain

	// Cache: when set, successful GET responses are cached for CacheTTL.
	Cache Cache
	// CacheTTL: lifetime of cached GET responses. Defaults to 5m.
	CacheTTL time.Duration `validate:"gte=0"`

	// TracerProvider: source of the per-call client span. Defaults to the
	// global OpenTelemetry provider.
	TracerProvider trace.TracerProvider
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}

	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// DefaultMaxRetries is the retry count DefaultConfig starts from.
const DefaultMaxRetries = constants.DefaultRetryMax

// DefaultConfig returns a config for baseURL with DefaultMaxRetries set. The
// remaining zero values are filled by WithDefaults when a client is built.
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		MaxRetries: DefaultMaxRetries,
	}
}

// WithDefaults returns a copy of the config with zero values replaced by
// defaults. MaxRetries is kept as is: zero means no retries.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = constants.DefaultHTTPTimeout
	}

	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	if c.CacheTTL == 0 {
		c.CacheTTL = constants.DefaultCacheTTL
	}

	if len(c.CustomHeaders) > 0 {
		headers := make(map[string]string, len(c.CustomHeaders))
		for k, v := range c.CustomHeaders {
			headers[k] = v
		}

		c.CustomHeaders = headers
	}

	return c
}
