package errors

import (
	"net/url"
	"time"
)

// MinInterval is the shortest polling interval accepted.
const MinInterval = time.Second

// ValidateURL checks a backend base URL. Only http and https with a host
// are accepted; a path prefix is allowed.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "backend URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid backend URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "backend URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "backend URL %q has no host", raw)
	}
	return nil
}

// ValidateInterval rejects polling intervals below [MinInterval].
func ValidateInterval(d time.Duration) error {
	if d < MinInterval {
		return New(ErrCodeInvalidInput, "interval must be at least %s, got %s", MinInterval, d)
	}
	return nil
}
