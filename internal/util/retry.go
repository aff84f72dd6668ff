// ABOUTME: Retry loop with exponential backoff for remote model calls
// ABOUTME: Used by the OpenAI client for completions and embedding batches
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps a single wait between attempts.
const MaxBackoff = 30 * time.Second

// Backoff returns base * 2^attempt with up to 25% jitter either way,
// capped at MaxBackoff before jitter. Attempt 0 never waits.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := base * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff <= 0 {
		backoff = MaxBackoff
	}
	spread := int64(backoff) / 2
	if spread == 0 {
		return backoff
	}
	return backoff + time.Duration(rand.Int64N(spread)) - backoff/4
}

// Do calls fn until it succeeds, retries are exhausted or ctx is done.
// fn receives the zero-based attempt number. The returned error wraps the
// last failure and reports how many attempts were made.
func Do(ctx context.Context, retries int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, Backoff(base, attempt)); err != nil {
				return err
			}
		}
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", retries+1, lastErr)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
