package providers

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrMissingAPIKey is returned by New when a hosted provider has no key.
var ErrMissingAPIKey = errors.New("missing API key")

// BackendError is a failed exchange with an AI backend. Status is the
// upstream HTTP status, or 0 when the request never got a response.
type BackendError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// Auth reports whether the backend rejected the credentials.
func (e *BackendError) Auth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Retryable reports whether repeating the request may succeed.
func (e *BackendError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// UnsupportedProviderError is returned for a provider tag outside the known set.
type UnsupportedProviderError struct {
	Tag string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Tag)
}

// IsAuthError reports whether err is a credential failure, including a
// missing API key.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var be *BackendError
	return errors.As(err, &be) && be.Auth()
}

// IsRetryable reports whether err is a rate limit or upstream server error.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Retryable()
}

func statusError(provider string, status int, body []byte) error {
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return &BackendError{Provider: provider, Status: status, Message: msg}
}

func missingKey(provider, env string) error {
	err := errors.Wrapf(ErrMissingAPIKey, "%s: %s is not set", provider, env)
	return errors.WithHintf(err, "export %s=<key> (keys are read from the environment only)", env)
}
