package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      3,
		BaseDelay:       1 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		BackoffFactor:   2.0,
		Jitter:          false,
		RetryableErrors: []ErrorType{ErrTypeDatabase},
	}
}

func TestDatabaseRetryConfig(t *testing.T) {
	config := DatabaseRetryConfig()

	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, config.BaseDelay)
	assert.Equal(t, 5*time.Second, config.MaxDelay)
	assert.Equal(t, 1.5, config.BackoffFactor)
	assert.Contains(t, config.RetryableErrors, ErrTypeDatabase)
}

func TestRetryer_Execute_Success(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig())

	callCount := 0
	err := retryer.Execute(context.Background(), func() error {
		callCount++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
}

func TestRetryer_Execute_RetryableError(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig())

	callCount := 0
	err := retryer.Execute(context.Background(), func() error {
		callCount++
		if callCount < 3 {
			return NewDatabaseError("TEST", "temporary failure", nil)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryer_Execute_NonRetryableError(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig())

	callCount := 0
	err := retryer.Execute(context.Background(), func() error {
		callCount++
		return NewValidationError("TEST", "validation failed", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, callCount)
	assert.True(t, HasCode(err, "TEST"))
}

func TestRetryer_Execute_ExhaustsRetries(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig())

	callCount := 0
	err := retryer.Execute(context.Background(), func() error {
		callCount++
		return NewDatabaseError("DB", "still down", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 4, callCount)
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Failed after 3 retries", appErr.Details)
}

func TestExecuteWithResult_PlainErrorIsWrapped(t *testing.T) {
	_, err := ExecuteWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		return 0, fmt.Errorf("boom")
	})

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeProcessingError))
}

func TestExecuteWithResult_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	_, err := ExecuteWithResult(ctx, fastRetryConfig(), func() (string, error) {
		callCount++
		return "", NewDatabaseError("DB", "down", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, callCount)
}

func TestRetryer_CalculateDelay(t *testing.T) {
	retryer := NewRetryer(&RetryConfig{
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2.0,
	})

	assert.Equal(t, 100*time.Millisecond, retryer.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, retryer.calculateDelay(2))
	assert.Equal(t, 300*time.Millisecond, retryer.calculateDelay(3))
}
