// Package retry implements the fixed-backoff retry loop used around model
// API and SMTP calls.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls the retry loop.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // multiply the delay by the attempt number
}

// Do runs fn until it succeeds or attempts run out, sleeping between tries.
// Context cancellation wins over the remaining attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if attempt == cfg.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, err)
			}
			delay := cfg.Delay
			if cfg.Backoff {
				delay = time.Duration(attempt) * cfg.Delay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		return nil
	}
	return lastErr
}
