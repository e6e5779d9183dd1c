// Package devdraft provides types, interfaces, and helpers for working with
// the DevDraft REST API.
//
// # Overview
//
// The devdraft package defines the Client interface, its Config, the
// APIError every failed call returns, the dynamic Value type responses are
// decoded into, and the cursor and page iterators. A concrete client is
// provided by the ddclient package, which wires configuration, transport,
// authentication, retries, caching, and tracing.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/devdraft/saligen/pkg/ddclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := ddclient.NewWithAPIKey("https://api.devdraft.example", "sk_live_...")
//	  if err != nil { log.Fatal(err) }
//
//	  customer, err := cli.Get(ctx, "/customers/cus_123", nil)
//	  if err != nil { log.Fatal(err) }
//	  name, _ := customer.Get("name").Str()
//	  _ = name
//	}
//
// # Pagination
//
// Cursor and page iterators fetch one page at a time, only when the consumer
// asks for the next item:
//
//	it := cli.PaginateCursor(ctx, "/customers", nil, nil)
//	for it.HasNext() {
//	  customer, err := it.Next()
//	  if err != nil { break }
//	  _ = customer
//	}
//	if err := it.Err(); err != nil { /* handle error */ }
//
// or with range-over-func:
//
//	for invoice, err := range cli.PaginatePage(ctx, "/invoices", nil, nil).Seq() {
//	  if err != nil { /* handle error */ }
//	  _ = invoice
//	}
//
// # Errors
//
// Every failure is an *APIError. Responses with a non-2xx status carry the
// status and the message, code, details and request id the server sent;
// failures that never produced a response carry one of the fixed codes
// CodeHTTPError, CodeUnexpectedError or CodeMaxRetriesExceeded:
//
//	_, err := cli.Get(ctx, "/customers/missing", nil)
//	if devdraft.IsNotFound(err) { /* ... */ }
//	if apiErr, ok := devdraft.AsAPIError(err); ok {
//	  log.Printf("request %s failed: %s", apiErr.RequestID, apiErr.Message)
//	}
//
// # Caching and interceptors
//
// Set Config.Cache to a MemoryCache, a NATSKVCache, or a CacheChain of both
// to cache successful GET responses. Config.Interceptors runs around every
// attempt, retries included; see RateLimitInterceptor and MetricsCollector.
package devdraft
