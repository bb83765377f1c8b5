// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrVersionConflict = errors.New("version conflict")

	// Bank feed errors.
	ErrPlaidConnection = errors.New("plaid connection failed")
	ErrPlaidRateLimit  = errors.New("plaid rate limit exceeded")
	ErrInvalidAccount  = errors.New("invalid account")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError indicates a malformed or missing numeric field on a
// document, such as a nil or negative subtotal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConsistencyError indicates a journal entry that violates the
// debit-equals-credit invariant after a synchronization operation.
type ConsistencyError struct {
	DebitTotal  float64
	CreditTotal float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("journal entry out of balance: debits %.2f, credits %.2f", e.DebitTotal, e.CreditTotal)
}

// ClassificationSkipped indicates a document that could not be evaluated
// for auto-approval, e.g. because the extraction produced no confidence
// score. Always resolves to "not approved", never to a crash.
type ClassificationSkipped struct {
	Reason string
}

func (e *ClassificationSkipped) Error() string {
	return fmt.Sprintf("classification skipped: %s", e.Reason)
}

// BatchItemError records an isolated per-document failure inside a batch
// run. The batch processor captures it instead of propagating it.
type BatchItemError struct {
	Err   error
	DocID string
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("document %s: %v", e.DocID, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrPlaidRateLimit) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
