package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoff(t *testing.T) {
	config := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Multiplier:  2,
	}

	t.Run("returns last error after all attempts", func(t *testing.T) {
		calls := 0
		_, err := retryWithBackoff(context.Background(), config, func() (string, error) {
			calls++
			return "", errors.New("nope")
		})

		assert.EqualError(t, err, "nope")
		assert.Equal(t, 3, calls)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		got, err := retryWithBackoff(context.Background(), RetryConfig{}, func() (int, error) {
			calls++
			return 7, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := retryWithBackoff(ctx, config, func() (string, error) {
			calls++
			cancel()
			return "", errors.New("nope")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
