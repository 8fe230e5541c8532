package providers

import (
	"context"
	"time"
)

// retryBaseDelay is the first back-off interval; it doubles per attempt.
var retryBaseDelay = time.Second

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Auth failures and malformed responses are final.
		if !IsRetryable(lastErr) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := retryBaseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
