package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPersistenceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError("save", cause)

	assert.Equal(t, ErrCodePersistenceFailed, err.Code)
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "PERSISTENCE_FAILED")
	assert.Contains(t, err.Details, cause.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("title is required")

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.False(t, err.Retryable)
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodePersistenceFailed, 3},
		{ErrCodeSessionQueryFailed, 3},
		{ErrCodeSearchIndexFailed, 3},
		{ErrCodeValidationFailed, 0},
		{ErrCodeDeliveryFailed, 0},
		{ErrCodeDispatchRejected, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetRetryCount(tt.code), string(tt.code))
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodePersistenceFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "DISPATCH", GetErrorCategory(ErrCodeDispatchRejected))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchIndexFailed))
}
