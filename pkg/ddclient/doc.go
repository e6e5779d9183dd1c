// Package ddclient is the primary entry point for constructing a DevDraft
// API client that implements the devdraft.Client interface.
//
// It layers configuration, HTTP transport, authentication, retries, response
// caching, and tracing on top of the interfaces and types defined in the
// devdraft package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "time"
//
//	  "github.com/devdraft/saligen/pkg/devdraft"
//	  "github.com/devdraft/saligen/pkg/ddclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With an API key:
//	  cli, err := ddclient.NewWithAPIKey("https://api.devdraft.example", "sk_live_...")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with full control:
//	  cli, err = ddclient.New(&devdraft.Config{
//	    BaseURL:     "https://api.devdraft.example",
//	    BearerToken: "eyJhbGciOi...",
//	    Timeout:     30 * time.Second,
//	    MaxRetries:  5,
//	    Cache:       devdraft.NewMemoryCache(500),
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  payment, err := cli.Post(ctx, "/payments", map[string]any{"amount": 1000},
//	    ddclient.NewIdempotencyKey())
//	  if err != nil { log.Fatal(err) }
//	  _ = payment
//	}
//
// # Configuration from viper
//
// ConfigFromViper reads base_url, api_key, bearer_token, timeout,
// max_retries, user_agent, headers and debug, so a client can be configured
// from files, environment variables and flags at once.
package ddclient
