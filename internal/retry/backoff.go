package retry

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/devdraft/saligen/internal/constants"
)

// Ensure Backoff has the go-retryablehttp signature so either can be plugged
// into the other.
var _ retryablehttp.Backoff = Backoff

// IsRetryableStatus reports whether status warrants another attempt.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Backoff returns the wait before the attempt following attemptNum (0-based).
// A Retry-After header on resp wins; otherwise the wait is
// min(minWait * 2^attemptNum, maxWait).
func Backoff(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if wait, ok := RetryAfter(resp.Header, time.Now()); ok {
			return wait
		}
	}

	return Exponential(minWait, maxWait, attemptNum)
}

// Exponential returns min(minWait * 2^attemptNum, maxWait).
func Exponential(minWait, maxWait time.Duration, attemptNum int) time.Duration {
	if attemptNum < 0 {
		attemptNum = 0
	}

	mult := math.Pow(constants.ExponentialBackoffBase, float64(attemptNum))

	wait := float64(minWait) * mult
	if wait >= float64(maxWait) || math.IsInf(wait, 1) {
		return maxWait
	}

	return time.Duration(wait)
}

// RetryAfter parses a Retry-After header as whole seconds, or as an HTTP
// date or RFC 3339 timestamp relative to now. Negative or past values clamp
// to zero. ok is false when the header is absent or unparseable.
func RetryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	value := strings.TrimSpace(header.Get(constants.HeaderRetryAfter))
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}

		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		at, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return 0, false
		}
	}

	seconds := int64(at.Sub(now) / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	return time.Duration(seconds) * time.Second, true
}
