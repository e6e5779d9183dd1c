// Package retry drives the attempts of one logical request: it classifies
// every outcome, waits between retryable failures, and turns the final
// outcome into a devdraft.APIError.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// AttemptFunc performs attempt number attempt (0-based) of a logical call.
type AttemptFunc func(ctx context.Context, attempt int) (*devdraft.Response, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Engine retries attempts that failed with a retryable status or a transport
// failure. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
	backoff    retryablehttp.Backoff
	sleep      SleepFunc
	logger     devdraft.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWait sets the exponential backoff unit and cap.
func WithWait(minWait, maxWait time.Duration) Option {
	return func(e *Engine) {
		e.waitMin = minWait
		e.waitMax = maxWait
	}
}

// WithBackoff replaces the backoff policy.
func WithBackoff(backoff retryablehttp.Backoff) Option {
	return func(e *Engine) {
		e.backoff = backoff
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// WithLogger logs every scheduled retry.
func WithLogger(logger devdraft.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine making at most maxRetries+1 attempts per call.
func New(maxRetries int, opts ...Option) *Engine {
	if maxRetries < 0 {
		maxRetries = 0
	}

	engine := &Engine{
		maxRetries: maxRetries,
		waitMin:    constants.DefaultRetryWaitMin,
		waitMax:    constants.DefaultRetryWaitMax,
		backoff:    Backoff,
		sleep:      Sleep,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// MaxRetries returns the number of retries after the first attempt.
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

// Run performs attempts until one succeeds, one fails terminally, or the
// retries run out. It returns the successful response, or an
// *devdraft.APIError and the response that produced it, if any.
func (e *Engine) Run(ctx context.Context, fn AttemptFunc) (*devdraft.Response, int, error) {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		resp, err := e.call(ctx, fn, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempt + 1, devdraft.NewTransportFailure(ctx.Err())
			}

			lastErr = err

			if attempt < e.maxRetries {
				err = e.wait(ctx, attempt, nil, err)
				if err != nil {
					return nil, attempt + 1, devdraft.NewTransportFailure(err)
				}

				continue
			}

			return nil, attempt + 1, classify(err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return resp, attempt + 1, nil
		}

		if IsRetryableStatus(resp.StatusCode) && attempt < e.maxRetries {
			lastErr = fmt.Errorf("%w: status %d", errRetryableStatus, resp.StatusCode)

			err = e.wait(ctx, attempt, resp, lastErr)
			if err != nil {
				return nil, attempt + 1, devdraft.NewTransportFailure(err)
			}

			continue
		}

		return resp, attempt + 1, devdraft.NormalizeResponse(resp.StatusCode, resp.Headers, resp.Body)
	}

	return nil, e.maxRetries + 1, devdraft.NewMaxRetriesExceeded(lastErr)
}

var (
	errRetryableStatus = errors.New("retryable status")
	errAttemptPanicked = errors.New("attempt panicked")
	errNoResponse      = errors.New("attempt returned no response")
)

// call runs one attempt, turning a panic or a missing response into an error.
func (e *Engine) call(ctx context.Context, fn AttemptFunc, attempt int) (resp *devdraft.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("%w: %v", errAttemptPanicked, r)
		}
	}()

	resp, err = fn(ctx, attempt)
	if err == nil && resp == nil {
		err = errNoResponse
	}

	return resp, err
}

func (e *Engine) wait(ctx context.Context, attempt int, resp *devdraft.Response, cause error) error {
	var httpResp *http.Response
	if resp != nil {
		httpResp = &http.Response{StatusCode: resp.StatusCode, Header: resp.Headers}
	}

	delay := e.backoff(e.waitMin, e.waitMax, attempt, httpResp)

	if e.logger != nil {
		e.logger.Warn("Retrying request", map[string]interface{}{
			"attempt": attempt + 1,
			"wait":    delay.String(),
			"reason":  cause.Error(),
		})
	}

	return e.sleep(ctx, delay)
}

// classify maps an attempt failure onto its fixed error code.
func classify(err error) *devdraft.APIError {
	var (
		transportErr *devdraft.TransportError
		urlErr       *url.Error
		netErr       net.Error
	)

	if errors.As(err, &transportErr) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return devdraft.NewTransportFailure(err)
	}

	return devdraft.NewUnexpectedFailure(err)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
