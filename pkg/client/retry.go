package client

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// backoffBaseUnit scales the exponential backoff. The delay before retry
// attempt n is min(MaxDelay, ExponentialBase^n * backoffBaseUnit).
const backoffBaseUnit = 1 * time.Second

// RetryPolicy holds the retry configuration. Immutable after construction.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero disables retries.
	MaxRetries int

	// ExponentialBase is the backoff growth factor. Must be > 1.0.
	ExponentialBase float64

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		ExponentialBase: 2.0,
		MaxDelay:        30 * time.Second,
	}
}

// Decision is the outcome of a retry check.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Decide determines whether a failed attempt should be retried and with
// what delay. The attempt number starts at 0 for the first try. It always
// yields a decision; only the classifier produces errors.
func (p RetryPolicy) Decide(attempt int, class ErrorClass) Decision {
	if attempt >= p.MaxRetries || !shouldRetry(class) {
		return Decision{}
	}

	return Decision{Retry: true, Delay: p.backoff(attempt)}
}

// backoff computes the exponential delay for the given attempt, capped at
// MaxDelay. No jitter: retry timing stays deterministic and testable.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(p.ExponentialBase, float64(attempt)) * float64(backoffBaseUnit))
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}
	return delay
}

// retryAfterDelay reads a server-supplied Retry-After header, either in
// delay-seconds or HTTP-date form. Returns 0 when absent or unusable.
// The result is capped at the policy's MaxDelay.
func (p RetryPolicy) retryAfterDelay(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}

	var delay time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		delay = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		delay = time.Until(at)
	}

	if delay <= 0 {
		return 0
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
