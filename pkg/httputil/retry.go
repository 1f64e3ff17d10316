package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network errors, 5xx and 429 responses) with this
// type so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy controls [Retry]. The zero value makes a single attempt.
type Policy struct {
	Attempts int           // total attempts, minimum 1
	Delay    time.Duration // wait before the second attempt
	MaxDelay time.Duration // cap for the doubled delay, 0 = no cap
}

// NoRetry makes exactly one attempt.
var NoRetry = Policy{Attempts: 1}

// Retry executes fn up to p.Attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. Returns the last error if all attempts fail, or
// ctx.Err() if ctx is cancelled while waiting.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		if err := fn(ctx); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

// IsRetryable reports whether err was marked as transient.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
