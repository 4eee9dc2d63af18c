package crawl

import (
	"context"
	"time"
)

// Retry defaults.
const (
	DefaultRetryLimit = 3
	DefaultRetryDelay = time.Second
)

// AttemptFunc runs one attempt of a task.
type AttemptFunc func(ctx context.Context) error

// RetryErrorFunc is called after every failed attempt. willRetry is false for
// the final failure.
type RetryErrorFunc func(err error, attempt int, willRetry bool)

// FixedDelays returns n retry delays of d each.
func FixedDelays(n int, d time.Duration) []time.Duration {
	delays := make([]time.Duration, n)
	for i := range delays {
		delays[i] = d
	}
	return delays
}

// DefaultRetryDelays returns DefaultRetryLimit delays of DefaultRetryDelay.
func DefaultRetryDelays() []time.Duration {
	return FixedDelays(DefaultRetryLimit, DefaultRetryDelay)
}

// RetryWithDelays runs fn until it succeeds, retrying once per entry in
// delays and waiting that long before each retry. It returns the last error.
func RetryWithDelays(ctx context.Context, fn AttemptFunc, onErr RetryErrorFunc, delays []time.Duration) error {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		willRetry := attempt < maxAttempts-1 && ctx.Err() == nil
		if onErr != nil {
			onErr(err, attempt+1, willRetry)
		}
		if !willRetry {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
