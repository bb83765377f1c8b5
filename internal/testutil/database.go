// Package testutil provides shared helpers for tests that need a real
// storage layer or realistic document fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/service"
	"github.com/nateechai/docledger/internal/storage"
)

// SetupTestDB creates an in-memory database with migrations applied and
// cleanup registered.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// DocumentOption mutates a fixture document.
type DocumentOption func(*model.DocumentRecord)

// NewDocument builds a pending document record with sensible extraction
// values that options can override.
func NewDocument(id string, opts ...DocumentOption) model.DocumentRecord {
	issueDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	subtotal := 1000.0
	vat := 70.0
	grand := 1070.0
	confidence := 0.95

	rec := model.DocumentRecord{
		ID:       id,
		ClientID: "client-1",
		Status:   model.StatusPendingReview,
		Extracted: &model.ExtractedDocument{
			InvoiceNumber:    "INV-" + id,
			IssueDate:        &issueDate,
			VendorName:       "Test Vendor Co., Ltd.",
			ClientCompany:    "Acme Accounting",
			Subtotal:         &subtotal,
			VATRate:          7,
			VATAmount:        &vat,
			GrandTotal:       &grand,
			IsFullTaxInvoice: true,
			VATClaimable:     true,
			DocType:          "invoice",
			Description:      "office supplies",
			Confidence:       &confidence,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// WithAmounts overrides subtotal, VAT and grand total in one call.
func WithAmounts(subtotal, vat, grand float64) DocumentOption {
	return func(rec *model.DocumentRecord) {
		rec.Extracted.Subtotal = &subtotal
		rec.Extracted.VATAmount = &vat
		rec.Extracted.GrandTotal = &grand
	}
}

// WithConfidence overrides the extraction confidence.
func WithConfidence(confidence float64) DocumentOption {
	return func(rec *model.DocumentRecord) {
		rec.Extracted.Confidence = &confidence
	}
}

// WithVendor overrides the vendor name.
func WithVendor(name string) DocumentOption {
	return func(rec *model.DocumentRecord) {
		rec.Extracted.VendorName = name
	}
}

// WithStatus overrides the workflow status.
func WithStatus(status model.DocumentStatus) DocumentOption {
	return func(rec *model.DocumentRecord) {
		rec.Status = status
	}
}
