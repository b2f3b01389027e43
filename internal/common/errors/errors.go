// Package errors provides standardized error handling for the query resolution pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Accounting source connectivity.
	ErrCodeNotConnected       ErrorCode = "NOT_CONNECTED"
	ErrCodeSourceQueryFailed  ErrorCode = "SOURCE_QUERY_FAILED"
	ErrCodeSourceQueryTimeout ErrorCode = "SOURCE_QUERY_TIMEOUT"

	// Replicated transaction store.
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"

	// User input.
	ErrCodeInvalidSelection ErrorCode = "INVALID_CONTINUATION_SELECTION"

	// Reminder delivery.
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// NewNotConnectedError creates a non-retryable connectivity error. The user is
// expected to reconnect the accounting source; the pipeline never retries
// silently.
func NewNotConnectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotConnected,
		Message:   "Accounting source is not reachable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceQueryFailedError creates a retryable accounting-source read error.
func NewSourceQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceQueryFailed,
		Message:   "Accounting source query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceQueryTimeoutError creates a retryable accounting-source timeout error.
func NewSourceQueryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceQueryTimeout,
		Message:   "Accounting source query timeout",
		Details:   "read exceeded the configured timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable transaction-store error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Transaction store query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable transaction-store timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Transaction store query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSelectionError creates a bounded-range continuation error.
func NewInvalidSelectionError(selection, max int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSelection,
		Message:   "Selection is out of range",
		Details:   fmt.Sprintf("selection: %d, candidates: %d", selection, max),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable reminder-delivery error.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Reminder delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSourceQueryFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationFailed:
		return 3

	case ErrCodeSourceQueryTimeout,
		ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}
