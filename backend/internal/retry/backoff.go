package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/constants"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// Config configures retry behavior with exponential backoff
type Config struct {
	MaxAttempts int           // Total attempts including the first (default: 3)
	BaseDelay   time.Duration // Delay before the first retry (default: 200ms)
	MaxDelay    time.Duration // Upper bound for a single delay (default: 2s)
	Multiplier  float64       // Exponential backoff multiplier (default: 2.0)
	Jitter      bool          // Add up to 10% random jitter
}

// DefaultConfig suits interactive commands: a user waits for the answer
func DefaultConfig() Config {
	return Config{
		MaxAttempts: constants.MaxStorageAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or runs out of
// attempts. Only StorageUnavailable errors are retried.
func Do[T any](ctx context.Context, cfg Config, logger *zap.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero T
		err  error
	)
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("Operation succeeded after retry",
					zap.String("operation", op),
					zap.Int("attempts", attempt+1),
				)
			}
			return v, nil
		}
		if !apperrors.IsRetryable(err) || attempt == attempts-1 {
			break
		}

		delay := calculateDelay(cfg, attempt)
		logger.Warn("Retrying operation",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, apperrors.NewStorageUnavailable(op, ctx.Err())
		case <-timer.C:
		}
	}
	return zero, err
}

// calculateDelay returns baseDelay * multiplier^attempt, capped at MaxDelay
func calculateDelay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}
	return time.Duration(delay)
}
