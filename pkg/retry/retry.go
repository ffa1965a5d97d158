package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

// RetryConfig controls exponential backoff.
type RetryConfig struct {
	MaxRetries      int                   // attempts, including the first one
	InitialDelay    time.Duration         // delay after the first failure
	MaxDelay        time.Duration         // upper bound for a single delay
	BackoffFactor   float64               // delay multiplier per attempt
	JitterFactor    float64               // random extra delay, fraction of the delay
	LogRetryAttempt bool                  // log every failed attempt
	ShouldRetry     func(error, int) bool // stops early when it returns false
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      5,
		InitialDelay:    time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		JitterFactor:    0.2,
		LogRetryAttempt: true,
	}
}

func (c *RetryConfig) Validate() error {
	if c.MaxRetries < 1 {
		return errors.New("MaxRetries must be >= 1")
	}
	if c.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if c.MaxDelay <= 0 {
		return errors.New("MaxDelay must be positive")
	}
	if c.BackoffFactor < 1.0 {
		return errors.New("BackoffFactor must be >= 1.0")
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1.0 {
		return errors.New("JitterFactor must be between 0.0 and 1.0")
	}
	return nil
}

func calculateDelayWithJitter(baseDelay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return baseDelay
	}
	return baseDelay + time.Duration(jitterFactor*float64(baseDelay)*rand.Float64())
}

func calculateNextDelay(currentDelay time.Duration, backoffFactor float64, maxDelay time.Duration) time.Duration {
	next := time.Duration(float64(currentDelay) * backoffFactor)
	if next > maxDelay {
		return maxDelay
	}
	return next
}

// Retry runs operation until it succeeds, the attempts run out, ShouldRetry
// declines, or ctx is done.
func Retry[T any](ctx context.Context, operation func() (T, error), retryConfig *RetryConfig, logger logging.Logger) (T, error) {
	var zero T
	var err error

	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	} else if err := retryConfig.Validate(); err != nil {
		return zero, fmt.Errorf("invalid retry config: %w", err)
	}

	delay := retryConfig.InitialDelay
	for attempt := 0; attempt < retryConfig.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		result, opErr := operation()
		if opErr == nil {
			return result, nil
		}
		err = opErr

		if retryConfig.ShouldRetry != nil && !retryConfig.ShouldRetry(err, attempt+1) {
			return zero, err
		}
		if attempt == retryConfig.MaxRetries-1 {
			break
		}

		sleep := calculateDelayWithJitter(delay, retryConfig.JitterFactor)
		if retryConfig.LogRetryAttempt && logger != nil {
			logger.Warnf("Attempt %d/%d failed: %v. Retrying in %v...", attempt+1, retryConfig.MaxRetries, err, sleep)
		}

		select {
		case <-time.After(sleep):
			delay = calculateNextDelay(delay, retryConfig.BackoffFactor, retryConfig.MaxDelay)
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", retryConfig.MaxRetries, err)
}

func RetryFunc(ctx context.Context, operation func() error, config *RetryConfig, logger logging.Logger) error {
	_, err := Retry(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, config, logger)
	return err
}
