package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nateechai/docledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidStatus    = errors.New("invalid document status")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrInvalidRule      = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDocument validates a document record before persistence.
func validateDocument(rec *model.DocumentRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidDocument)
	}
	if rec.Extracted == nil {
		return fmt.Errorf("%w: missing extraction result", ErrInvalidDocument)
	}
	switch rec.Status {
	case model.StatusPendingReview, model.StatusApproved, model.StatusProcessing, model.StatusRejected:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, rec.Status)
	}
	return nil
}

// validateVendorRule validates a vendor rule before persistence.
func validateVendorRule(rule *model.VendorRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Keyword) == "" {
		return fmt.Errorf("%w: missing keyword", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.AccountCode) == "" {
		return fmt.Errorf("%w: missing account code", ErrInvalidRule)
	}
	return nil
}
