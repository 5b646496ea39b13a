package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()

	assert.Equal(t, 5, strategy.MaxAttempts)
	assert.Equal(t, time.Second, strategy.BaseDelay)
	assert.Equal(t, 30*time.Second, strategy.MaxDelay)
	assert.Equal(t, 2.0, strategy.ExponentialBase)
}

func TestStrategy_CalculateRetryDelay(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name          string
		attemptNumber int
		expectedDelay time.Duration
	}{
		{"zero - base delay", 0, time.Second},
		{"negative - base delay", -3, time.Second},
		{"first retry doubles", 1, 2 * time.Second},
		{"second retry", 2, 4 * time.Second},
		{"fourth retry", 4, 16 * time.Second},
		{"fifth retry capped", 5, 30 * time.Second}, // would be 32s
		{"large attempt still capped", 100, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedDelay, strategy.CalculateRetryDelay(tt.attemptNumber))
		})
	}
}

func TestStrategy_IsRetryable(t *testing.T) {
	strategy := Strategy{MaxAttempts: 3}

	assert.True(t, strategy.IsRetryable(0))
	assert.True(t, strategy.IsRetryable(2))
	assert.False(t, strategy.IsRetryable(3))
	assert.False(t, strategy.IsRetryable(10))
}

func fastStrategy(attempts int) Strategy {
	return Strategy{
		MaxAttempts:     attempts,
		BaseDelay:       time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		ExponentialBase: 2.0,
	}
}

func TestStrategy_DoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := fastStrategy(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestStrategy_DoReturnsLastError(t *testing.T) {
	calls := 0
	err := fastStrategy(4).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("refused")
	})

	assert.EqualError(t, err, "refused")
	assert.Equal(t, 4, calls)
}

func TestStrategy_DoStopsOnCancel(t *testing.T) {
	strategy := Strategy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, ExponentialBase: 2}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := strategy.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestStrategy_DoWithoutAttempts(t *testing.T) {
	err := Strategy{}.Do(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestStrategy_GetRetrySchedule(t *testing.T) {
	schedule := DefaultStrategy().GetRetrySchedule()

	assert.True(t, strings.HasPrefix(schedule, "Retry Schedule:\n"))
	assert.Contains(t, schedule, "Attempt 1: immediately")
	assert.Contains(t, schedule, "Attempt 2: after 2s")
	assert.Contains(t, schedule, "Attempt 5: after 16s")
	assert.NotContains(t, schedule, "Attempt 6")
}
