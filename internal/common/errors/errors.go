// Package errors provides the standardized error taxonomy for the chat API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeLeadNotFound     ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeTurnInProgress   ErrorCode = "TURN_IN_PROGRESS"

	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrCodeOracleTimeout     ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleParseFailed ErrorCode = "ORACLE_PARSE_FAILED"

	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadNotFoundError creates a non-retryable unknown-lead error.
func NewLeadNotFoundError(leadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadNotFound,
		Message:   "Lead not found",
		Details:   fmt.Sprintf("leadId: %s", leadID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTurnInProgressError signals that another turn holds the per-lead lock.
func NewTurnInProgressError(leadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTurnInProgress,
		Message:   "Another message for this lead is still being processed",
		Details:   fmt.Sprintf("leadId: %s", leadID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreReadError creates a retryable persistence read error.
func NewStoreReadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Record store read failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteError creates a retryable persistence write error.
func NewStoreWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Record store write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard unwraps err into a *StandardError, or wraps it as a generic
// store failure. Oracle failures are recovered at their call sites and are
// never expected to reach this mapping.
func AsStandard(err error) *StandardError {
	var std *StandardError
	if errors.As(err, &std) {
		return std
	}
	return NewStoreWriteError(err)
}

// HTTPStatus maps an error to its transport status code.
func HTTPStatus(err error) int {
	switch AsStandard(err).Code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeLeadNotFound:
		return http.StatusNotFound
	case ErrCodeTurnInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
