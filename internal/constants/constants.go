package constants

import "time"

// SDK identity.
const (
	// SDKVersion is the released version of the SDK.
	SDKVersion = "0.1.0"

	// SDKLanguage is reported in the SDK-language header.
	SDKLanguage = "go"

	// DefaultUserAgent is sent when the caller does not configure one.
	DefaultUserAgent = "devdraft-go-sdk/" + SDKVersion
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the connect/read timeout applied to each attempt.
	DefaultHTTPTimeout = 15 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the backoff unit: the wait before the first retry.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps the exponential backoff.
	DefaultRetryWaitMax = 8 * time.Second

	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2
)

// Header names.
const (
	HeaderUserAgent      = "User-Agent"
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderAPIKey         = "X-API-Key"
	HeaderSDKLanguage    = "X-SDK-Language"
	HeaderSDKVersion     = "X-SDK-Version"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRetryAfter     = "Retry-After"
	HeaderRequestID      = "X-Request-Id"

	// ContentTypeJSON is the only body encoding the SDK speaks.
	ContentTypeJSON = "application/json"
)

// Pagination defaults.
const (
	DefaultCursorParam   = "cursor"
	DefaultPageParam     = "page"
	DefaultPerPageParam  = "perPage"
	DefaultItemsKey      = "items"
	DefaultNextCursorKey = "nextCursor"
	DefaultHasMoreKey    = "hasMore"
	DefaultTotalPagesKey = "totalPages"
)

// Cache limits.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultNATSBucket is the KV bucket used when none is configured.
	DefaultNATSBucket = "devdraft_responses"

	// NATSOperationTimeout bounds connection setup against the NATS server.
	NATSOperationTimeout = 10 * time.Second
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// CLI settings.
const (
	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".devdraft"

	// ConfigFileName is the CLI config file name without extension.
	ConfigFileName = "config"

	// DefaultBaseURL is the API the CLI talks to when none is configured.
	DefaultBaseURL = "https://api.devdraft.ai/v1"

	// EnvPrefix prefixes environment variables read by the CLI.
	EnvPrefix = "DEVDRAFT"

	// MinimumArgumentCount is the argument count of KEY VALUE commands.
	MinimumArgumentCount = 2

	// TimestampFormat is used when printing times in tables.
	TimestampFormat = "2006-01-02 15:04:05"
)
