// Package retry runs fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"math"
	"time"
)

// Settings bounds a retried operation.
type Settings struct {
	// MaxAttempts is the total number of invocations, including the first (>= 1).
	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`
	// BaseDelayMs is the delay before the second attempt; it doubles per attempt.
	BaseDelayMs int `json:"baseDelayMs" yaml:"baseDelayMs"`
}

// Notify is called before each backoff sleep.
type Notify func(attempt int, delay time.Duration, err error)

// Backoff returns the delay after the given failed attempt (1-based):
// baseDelayMs * 2^(attempt-1). Saturates instead of overflowing.
func Backoff(baseDelayMs, attempt int) time.Duration {
	if baseDelayMs <= 0 || attempt < 1 {
		return 0
	}
	ms := float64(baseDelayMs) * math.Pow(2, float64(attempt-1))
	if ms >= float64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// Do invokes op up to s.MaxAttempts times. The first attempt is unconditional.
// When the final attempt fails its error is returned unchanged. If ctx is
// canceled during a backoff sleep, the last operation error is returned.
func Do[T any](ctx context.Context, s Settings, notify Notify, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	maxAttempts := s.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if attempt >= maxAttempts {
			return v, err
		}

		delay := Backoff(s.BaseDelayMs, attempt)
		if notify != nil {
			notify(attempt, delay, err)
		}
		if !sleep(ctx, delay) {
			return v, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
