package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

func fastConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetry(t *testing.T) {
	logger := logging.NewNoOpLogger()
	errTemporary := errors.New("temporary")

	tests := []struct {
		name          string
		failures      int
		maxRetries    int
		expectError   bool
		expectedCalls int
	}{
		{name: "success on first try", failures: 0, maxRetries: 3, expectedCalls: 1},
		{name: "success after retries", failures: 2, maxRetries: 3, expectedCalls: 3},
		{name: "exhausted", failures: 5, maxRetries: 3, expectError: true, expectedCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result, err := Retry(context.Background(), func() (string, error) {
				calls++
				if calls <= tt.failures {
					return "", errTemporary
				}
				return "ok", nil
			}, fastConfig(tt.maxRetries), logger)

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, errTemporary)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", result)
		})
	}
}

func TestRetry_ShouldRetryStopsEarly(t *testing.T) {
	errFatal := errors.New("fatal")
	config := fastConfig(5)
	config.ShouldRetry = func(err error, attempt int) bool { return !errors.Is(err, errFatal) }

	calls := 0
	err := RetryFunc(context.Background(), func() error {
		calls++
		return errFatal
	}, config, logging.NewNoOpLogger())

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryFunc(ctx, func() error { return nil }, fastConfig(3), logging.NewNoOpLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultRetryConfig().Validate())

	bad := DefaultRetryConfig()
	bad.BackoffFactor = 0.5
	assert.Error(t, bad.Validate())

	bad = DefaultRetryConfig()
	bad.MaxRetries = 0
	assert.Error(t, bad.Validate())
}

func TestCalculateNextDelay_CapsAtMax(t *testing.T) {
	assert.Equal(t, 4*time.Second, calculateNextDelay(2*time.Second, 2.0, 10*time.Second))
	assert.Equal(t, 10*time.Second, calculateNextDelay(8*time.Second, 2.0, 10*time.Second))
}
