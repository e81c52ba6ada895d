// Package errors provides standardized error handling for the notification service.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transactional mutations. Any store failure inside save/update/remove
	// aborts the whole transaction and surfaces with this code.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"

	// Input validation on save/update.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Asynchronous work. These are isolated and logged, never propagated to
	// the caller of the originating mutation.
	ErrCodeSessionQueryFailed ErrorCode = "SESSION_QUERY_FAILED"
	ErrCodeDeliveryFailed     ErrorCode = "DELIVERY_FAILED"
	ErrCodeSearchIndexFailed  ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeDispatchRejected ErrorCode = "DISPATCH_REJECTED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewPersistenceError creates a retryable store failure.
func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Notification input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionQueryFailedError creates a retryable session registry error.
func NewSessionQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionQueryFailed,
		Message:   "Online session query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryFailedError creates a per-recipient push delivery error.
func NewDeliveryFailedError(address string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryFailed,
		Message:   "Push delivery failed",
		Details:   fmt.Sprintf("address: %s, error: %s", address, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable search index error.
func NewSearchIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Search index operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchRejectedError signals a fan-out rejected by a saturated queue.
func NewDispatchRejectedError(destination string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchRejected,
		Message:   "Dispatch queue full, fan-out rejected",
		Details:   fmt.Sprintf("destination: %s", destination),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed,
		ErrCodeSessionQueryFailed,
		ErrCodeSearchIndexFailed:
		return 3

	default:
		// Validation and per-recipient delivery: no retry. A missed push is
		// best-effort by contract.
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DELIVERY") || strings.Contains(codeStr, "DISPATCH"):
		return "DISPATCH"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
