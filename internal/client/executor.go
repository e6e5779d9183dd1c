package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// Do performs one logical call: it builds the request, runs it through the
// retry engine and returns the parsed body. 204 responses and bodies that are
// not valid JSON yield devdraft.Null.
func (c *Client) Do(ctx context.Context, method, path string, opts *devdraft.RequestOptions) (devdraft.Value, error) {
	if opts == nil {
		opts = &devdraft.RequestOptions{}
	}

	req, err := c.buildRequest(method, path, opts)

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if req != nil {
		target = fullURL(req)
	}

	ctx, span := c.tracer.Start(ctx, "devdraft "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	if err != nil {
		apiErr := devdraft.NewUnexpectedFailure(err)
		recordError(span, apiErr)

		return devdraft.Null, apiErr
	}

	if method == http.MethodGet && c.cache != nil && c.cache.Policy().ShouldCache(method, path, http.StatusOK) {
		return c.cachedGet(ctx, req)
	}

	resp, err := c.execute(ctx, req)
	if err != nil {
		return devdraft.Null, err
	}

	if method != http.MethodGet && c.cache != nil {
		_ = c.cache.InvalidateGroup(ctx, c.cacheKey(req.URL, nil))
	}

	return parseResult(resp), nil
}

// buildRequest joins path onto the base URL, moves any query string in path
// into Query, merges headers and encodes the body.
func (c *Client) buildRequest(method, path string, opts *devdraft.RequestOptions) (*devdraft.Request, error) {
	rawPath, rawQuery, _ := strings.Cut(strings.TrimLeft(path, "/"), "?")

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid query in path %q: %w", path, err)
	}

	for key, values := range opts.Query {
		query[key] = append([]string(nil), values...)
	}

	headers := c.headers.Clone()
	for key, value := range opts.Headers {
		headers.Set(key, value)
	}

	req := &devdraft.Request{
		Method:   method,
		Path:     path,
		URL:      c.baseURL + "/" + rawPath,
		Query:    query,
		Headers:  headers,
		Metadata: make(map[string]interface{}),
	}

	if opts.Body != nil {
		body, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		req.Body = body
	}

	return req, nil
}

// execute runs the attempts of one logical call and annotates the span.
func (c *Client) execute(ctx context.Context, base *devdraft.Request) (*devdraft.Response, error) {
	resp, attempts, err := c.engine.Run(ctx, func(ctx context.Context, attempt int) (*devdraft.Response, error) {
		req := cloneRequest(base)
		req.Attempt = attempt

		err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := c.transport.Do(ctx, req)

		observed := resp
		if observed == nil {
			observed = &devdraft.Response{Error: err}
		}

		interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, req, observed)
		if interceptErr != nil && err == nil {
			return nil, interceptErr
		}

		return resp, err
	})

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("devdraft.attempt_count", attempts))

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}

	if err != nil {
		recordError(span, err)

		return nil, err
	}

	return resp, nil
}

// cachedGet serves a GET from the response cache, collapsing concurrent
// misses for the same key into one call. Every key is tracked under the
// query-less URL so a later write to that URL evicts all its variants.
func (c *Client) cachedGet(ctx context.Context, req *devdraft.Request) (devdraft.Value, error) {
	key := c.cacheKey(req.URL, req.Query)
	c.cache.Track(c.cacheKey(req.URL, nil), key)

	loaded := false

	data, err := c.cache.GetOrLoad(ctx, key, c.cacheTTL, func(ctx context.Context) ([]byte, bool, error) {
		loaded = true

		resp, err := c.execute(ctx, req)
		if err != nil {
			return nil, false, err
		}

		if resp.StatusCode == http.StatusNoContent {
			return nil, false, nil
		}

		return resp.Body, c.cache.Policy().ShouldCache(req.Method, req.Path, resp.StatusCode), nil
	})
	if err != nil {
		if _, ok := devdraft.AsAPIError(err); !ok {
			err = devdraft.NewTransportFailure(err)
			recordError(trace.SpanFromContext(ctx), err)
		}

		return devdraft.Null, err
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Bool("devdraft.cache_hit", !loaded))

	if !loaded && c.logger != nil {
		c.logger.Debug("Cache hit", map[string]interface{}{"url": req.URL})
	}

	return devdraft.ParseBody(data), nil
}

func (c *Client) cacheKey(target string, query url.Values) string {
	return c.cacheScope + ":" + c.cache.GetCacheKey(http.MethodGet, target, query)
}

func fullURL(req *devdraft.Request) string {
	if len(req.Query) == 0 {
		return req.URL
	}

	return req.URL + "?" + req.Query.Encode()
}

func parseResult(resp *devdraft.Response) devdraft.Value {
	if resp.StatusCode == http.StatusNoContent {
		return devdraft.Null
	}

	return devdraft.ParseBody(resp.Body)
}

func cloneRequest(base *devdraft.Request) *devdraft.Request {
	req := *base
	req.Headers = base.Headers.Clone()

	req.Query = make(url.Values, len(base.Query))
	for key, values := range base.Query {
		req.Query[key] = append([]string(nil), values...)
	}

	req.Metadata = make(map[string]interface{}, len(base.Metadata))
	for key, value := range base.Metadata {
		req.Metadata[key] = value
	}

	return &req
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if apiErr, ok := devdraft.AsAPIError(err); ok && apiErr.Code != "" {
		span.SetAttributes(attribute.String("devdraft.error_code", apiErr.Code))
	}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (devdraft.Value, error) {
	return c.Do(ctx, http.MethodGet, path, &devdraft.RequestOptions{Query: query})
}

// Post issues a POST request, sending idempotencyKey as the Idempotency-Key
// header when it is not empty.
func (c *Client) Post(ctx context.Context, path string, body interface{}, idempotencyKey string) (devdraft.Value, error) {
	opts := &devdraft.RequestOptions{Body: body}
	if idempotencyKey != "" {
		opts.Headers = map[string]string{constants.HeaderIdempotencyKey: idempotencyKey}
	}

	return c.Do(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (devdraft.Value, error) {
	return c.Do(ctx, http.MethodPut, path, &devdraft.RequestOptions{Body: body})
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (devdraft.Value, error) {
	return c.Do(ctx, http.MethodPatch, path, &devdraft.RequestOptions{Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (devdraft.Value, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// PaginateCursor returns a lazy iterator over a cursor-paginated endpoint.
func (c *Client) PaginateCursor(ctx context.Context, path string, query url.Values, opts *devdraft.CursorOptions) *devdraft.CursorIterator {
	return devdraft.NewCursorIterator(ctx, c, path, query, opts)
}

// PaginatePage returns a lazy iterator over a page-numbered endpoint.
func (c *Client) PaginatePage(ctx context.Context, path string, query url.Values, opts *devdraft.PageOptions) *devdraft.PageIterator {
	return devdraft.NewPageIterator(ctx, c, path, query, opts)
}

// GetAllCursor drains a cursor-paginated endpoint.
func (c *Client) GetAllCursor(ctx context.Context, path string, query url.Values, opts *devdraft.CursorOptions) ([]devdraft.Value, error) {
	return devdraft.FetchAllCursor(ctx, c, path, query, opts)
}

// GetAllPage drains a page-numbered endpoint.
func (c *Client) GetAllPage(ctx context.Context, path string, query url.Values, opts *devdraft.PageOptions) ([]devdraft.Value, error) {
	return devdraft.FetchAllPages(ctx, c, path, query, opts)
}
