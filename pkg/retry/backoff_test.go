package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithBackoffSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), testConfig(), zap.NewNop(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffGivesUp(t *testing.T) {
	calls := 0
	cause := errors.New("down")
	err := WithBackoff(context.Background(), testConfig(), zap.NewNop(), "op", func() error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, cause, errors.Cause(err))
	assert.EqualError(t, err, "op failed after 3 attempts: down")
}

func TestWithBackoffStopsOnPermanentError(t *testing.T) {
	cfg := testConfig()
	permanent := errors.New("bad request")
	cfg.Retryable = func(err error) bool { return err != permanent }

	calls := 0
	err := WithBackoff(context.Background(), cfg, zap.NewNop(), "op", func() error {
		calls++
		return permanent
	})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithBackoff(ctx, testConfig(), zap.NewNop(), "op", func() error {
		t.Fatal("must not be called")
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCalculateBackoffCapped(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, time.Millisecond, calculateBackoff(cfg, 1))
	assert.Equal(t, 2*time.Millisecond, calculateBackoff(cfg, 2))
	assert.Equal(t, 5*time.Millisecond, calculateBackoff(cfg, 10))
}
