package verify

import (
	"context"
	"time"

	"github.com/fwojciec/plandok"
)

// DefaultRetryDelays returns the backoff delays applied between check
// retries: 1s, 2s. Only transport-level failures are retried; an HTTP
// response, whatever its status, is a completed check.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// checkWithRetry attempts a liveness check with exponential backoff.
// The retry budget is len(delays) retries on top of the initial attempt.
// Returns the last error once the budget is exhausted.
func checkWithRetry(ctx context.Context, checker plandok.LinkChecker, url string, delays []time.Duration) (*plandok.CheckResult, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := checker.Check(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Don't sleep after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
