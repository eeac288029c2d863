package waitfor

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/sethvargo/go-retry"
)

// Ready polls probe with fibonacci backoff until it succeeds or maxWait
// elapses. Backing stores are usually still starting when the service
// comes up, so every probe failure is retryable.
func Ready(ctx context.Context, name string, maxWait time.Duration, logger *slog.Logger, probe func(context.Context) error) error {
	backoff := retry.WithMaxDuration(maxWait, retry.NewFibonacci(500*time.Millisecond))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := probe(ctx); err != nil {
			logger.Warn("dependency not ready", "dependency", name, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", name, err)
	}
	logger.Info("dependency ready", "dependency", name, "attempts", attempt)
	return nil
}
