package failure

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures delayed retry for transient failures with
// exponential backoff.
type RetryPolicy struct {
	MaxRetries        int     // retry attempts, not counting the initial try
	BaseDelay         float64 // initial delay in seconds
	MaxDelay          float64 // maximum delay between retries
	BackoffMultiplier float64 // exponential backoff factor
	Jitter            bool    // randomize delays to avoid lockstep retries
	OnRetry           func(info ErrorInfo, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the default policy for transient tool errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          30.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay calculates the delay for attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		// +/- 50% jitter.
		delay = delay * (0.5 + rand.Float64())
	}
	return time.Duration(delay * float64(time.Second))
}

// Retry executes fn, re-attempting after a backoff delay while the returned
// error kind classifies as transient. Permanent kinds are returned
// immediately.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, *ErrorInfo)) (T, *ErrorInfo) {
	var zero T
	result, info := fn(ctx)
	if info == nil {
		return result, nil
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		if Classify(info.Kind) != Transient {
			return zero, info
		}

		delay := policy.Delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(*info, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return zero, &ErrorInfo{Kind: Timeout, Message: "cancelled while waiting to retry: " + ctx.Err().Error()}
		case <-time.After(delay):
		}

		result, info = fn(ctx)
		if info == nil {
			return result, nil
		}
	}
	return zero, info
}
