package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Code:    "TEST_ERROR",
				Message: "Test error message",
			},
			expected: "TEST_ERROR: Test error message",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Code:    "TEST_ERROR",
				Message: "Test error message",
				Cause:   fmt.Errorf("underlying error"),
			},
			expected: "TEST_ERROR: Test error message (caused by: underlying error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.Error())
		})
	}
}

func TestAppError_GetHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected int
	}{
		{"validation error", &AppError{Type: ErrTypeValidation}, http.StatusBadRequest},
		{"not found error", &AppError{Type: ErrTypeNotFound}, http.StatusNotFound},
		{"timeout error", &AppError{Type: ErrTypeTimeout}, http.StatusRequestTimeout},
		{"database error", &AppError{Type: ErrTypeDatabase}, http.StatusBadGateway},
		{"network error", &AppError{Type: ErrTypeNetwork}, http.StatusBadGateway},
		{"configuration error", &AppError{Type: ErrTypeConfiguration}, http.StatusInternalServerError},
		{"internal error", &AppError{Type: ErrTypeInternal}, http.StatusInternalServerError},
		{
			name: "custom status code",
			appError: &AppError{
				Type:       ErrTypeValidation,
				StatusCode: http.StatusRequestEntityTooLarge,
			},
			expected: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appError.GetHTTPStatusCode())
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	cause := fmt.Errorf("underlying error")

	tests := []struct {
		name               string
		constructor        func() *AppError
		expectedType       ErrorType
		expectedRetryable  bool
		expectedStatusCode int
	}{
		{
			name:               "validation error",
			constructor:        func() *AppError { return NewValidationError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeValidation,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "configuration error",
			constructor:        func() *AppError { return NewConfigurationError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeConfiguration,
			expectedStatusCode: http.StatusInternalServerError,
		},
		{
			name:               "database error",
			constructor:        func() *AppError { return NewDatabaseError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeDatabase,
			expectedRetryable:  true,
			expectedStatusCode: http.StatusInternalServerError,
		},
		{
			name:               "internal error",
			constructor:        func() *AppError { return NewInternalError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeInternal,
			expectedStatusCode: http.StatusInternalServerError,
		},
		{
			name:               "network error",
			constructor:        func() *AppError { return NewNetworkError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeNetwork,
			expectedRetryable:  true,
			expectedStatusCode: http.StatusBadGateway,
		},
		{
			name:               "timeout error",
			constructor:        func() *AppError { return NewTimeoutError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeTimeout,
			expectedRetryable:  true,
			expectedStatusCode: http.StatusRequestTimeout,
		},
		{
			name:               "not found error",
			constructor:        func() *AppError { return NewNotFoundError("TEST_CODE", "test message", cause) },
			expectedType:       ErrTypeNotFound,
			expectedStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor()

			assert.Equal(t, tt.expectedType, err.Type)
			assert.Equal(t, "TEST_CODE", err.Code)
			assert.Equal(t, "test message", err.Message)
			assert.Equal(t, cause, err.Cause)
			assert.Equal(t, tt.expectedRetryable, err.Retryable)
			assert.Equal(t, tt.expectedStatusCode, err.StatusCode)
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NewValidationError("TEST", "test", nil)

	t.Run("direct app error", func(t *testing.T) {
		got, ok := AsAppError(appErr)
		assert.True(t, ok)
		assert.Same(t, appErr, got)
	})

	t.Run("wrapped app error", func(t *testing.T) {
		got, ok := AsAppError(fmt.Errorf("context: %w", appErr))
		assert.True(t, ok)
		assert.Same(t, appErr, got)
	})

	t.Run("regular error", func(t *testing.T) {
		got, ok := AsAppError(fmt.Errorf("regular error"))
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("nil error", func(t *testing.T) {
		assert.False(t, IsAppError(nil))
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("parse: %w", NewValidationError(ErrCodeInvalidFile, "bad csv", nil))

	assert.True(t, HasCode(err, ErrCodeInvalidFile))
	assert.False(t, HasCode(err, ErrCodeUnsupportedFormat))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeInvalidFile))
}

func TestWrapError(t *testing.T) {
	t.Run("wrap regular error", func(t *testing.T) {
		cause := fmt.Errorf("regular error")
		result := WrapError(cause, ErrTypeDatabase, "TEST_CODE", "test message")

		require.NotNil(t, result)
		assert.Equal(t, ErrTypeDatabase, result.Type)
		assert.Equal(t, "TEST_CODE", result.Code)
		assert.Equal(t, cause, result.Cause)
		assert.True(t, result.Retryable)
	})

	t.Run("wrap app error keeps retryability", func(t *testing.T) {
		cause := NewValidationError("BAD", "bad", nil)
		result := WrapError(cause, ErrTypeDatabase, "DB", "db failed")

		require.NotNil(t, result)
		assert.Equal(t, cause, result.Cause)
		assert.False(t, result.Retryable)
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, ErrTypeValidation, "TEST_CODE", "test message"))
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable app error", NewDatabaseError("TEST", "test", nil), true},
		{"non-retryable app error", NewValidationError("TEST", "test", nil), false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"regular error", fmt.Errorf("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := NewValidationError(ErrCodeMissingColumn, "column not found", nil).WithDetails("Clinical Notes")

	assert.Equal(t, "Clinical Notes", err.Details)
}
