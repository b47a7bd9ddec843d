package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestDo_RetriesStorageUnavailable(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastConfig(), zap.NewNop(), "count", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, apperrors.NewStorageUnavailable("count", errors.New("connection refused"))
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), zap.NewNop(), "count", func(context.Context) (int, error) {
		calls++
		return 0, apperrors.NewStorageUnavailable("count", errors.New("down"))
	})
	assert.True(t, apperrors.IsStorageUnavailable(err))
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), zap.NewNop(), "find", func(context.Context) (string, error) {
		calls++
		return "", apperrors.NewNotFound("user", "x")
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	_, err := Do(ctx, cfg, zap.NewNop(), "count", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, apperrors.NewStorageUnavailable("count", errors.New("down"))
	})
	assert.True(t, apperrors.IsStorageUnavailable(err))
	assert.Equal(t, 1, calls)
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 300*time.Millisecond, calculateDelay(cfg, 2), "capped at MaxDelay")
}
