// Package retry provides exponential backoff for connection attempts to
// bootstrap and discovered peers.
package retry

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Strategy defines the backoff used between attempts.
//
// The schedule follows: delay = min(BaseDelay * ExponentialBase^attempt, MaxDelay)
//
// Example with defaults (1s base, 2.0 exponential, 30s max, 5 attempts):
//
//	Attempt 1: immediately
//	Attempt 2: after 2s
//	Attempt 3: after 4s
//	Attempt 4: after 8s
//	Attempt 5: after 16s
type Strategy struct {
	MaxAttempts     int           // Total attempts including the first
	BaseDelay       time.Duration // Delay unit
	MaxDelay        time.Duration // Cap on any single delay
	ExponentialBase float64       // Backoff multiplier (e.g., 2.0 for doubling)
}

// DefaultStrategy returns the strategy used for peer dials.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
	}
}

// CalculateRetryDelay calculates the delay before the given attempt.
// Formula: delay = min(BaseDelay * ExponentialBase^attemptNumber, MaxDelay)
func (s Strategy) CalculateRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(attemptNumber))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}

	return time.Duration(delay)
}

// IsRetryable reports whether another attempt is allowed after attemptCount
// attempts have been made.
func (s Strategy) IsRetryable(attemptCount int) bool {
	return attemptCount < s.MaxAttempts
}

// Do calls fn until it succeeds, the attempts are exhausted, or ctx is done.
// The first call is immediate; later calls wait CalculateRetryDelay(n).
// The last error from fn is returned, or ctx.Err() if the wait was cut short.
func (s Strategy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; s.IsRetryable(attempt); attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(s.CalculateRetryDelay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}
	if err == nil {
		return fmt.Errorf("retry: no attempts allowed (MaxAttempts=%d)", s.MaxAttempts)
	}
	return err
}

// GetRetrySchedule returns a human-readable description of the schedule.
//
// Example output:
//
//	Retry Schedule:
//	  Attempt 1: immediately
//	  Attempt 2: after 2s
//	  ...
func (s Strategy) GetRetrySchedule() string {
	var b strings.Builder
	b.WriteString("Retry Schedule:\n")
	for i := 0; i < s.MaxAttempts; i++ {
		if i == 0 {
			b.WriteString("  Attempt 1: immediately\n")
			continue
		}
		fmt.Fprintf(&b, "  Attempt %d: after %v\n", i+1, s.CalculateRetryDelay(i))
	}
	return b.String()
}
