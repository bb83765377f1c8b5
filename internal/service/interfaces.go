// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/nateechai/docledger/internal/model"
)

// DocumentFilter defines filtering options for document queries.
type DocumentFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    model.DocumentStatus
	ClientID  string
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Document operations
	SaveDocument(ctx context.Context, doc *model.DocumentRecord) error
	GetDocumentByID(ctx context.Context, id string) (*model.DocumentRecord, error)
	GetDocuments(ctx context.Context, filter DocumentFilter) ([]model.DocumentRecord, error)
	GetPendingDocuments(ctx context.Context) ([]model.DocumentRecord, error)
	// UpdateDocumentStatus applies a status transition only when the stored
	// version matches expectedVersion, returning common.ErrVersionConflict
	// otherwise. The stored version is incremented on success. Source records
	// whether the transition was automated or manual; pass an empty source
	// for transitions that are neither approval nor rejection.
	UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, source model.ApprovalSource, expectedVersion int) error
	UpdateExtractedDocument(ctx context.Context, id string, extracted *model.ExtractedDocument) error

	// Vendor rule operations
	GetVendorRules(ctx context.Context) ([]model.VendorRule, error)
	GetVendorRule(ctx context.Context, keyword string) (*model.VendorRule, error)
	SaveVendorRule(ctx context.Context, rule *model.VendorRule) error
	DeleteVendorRule(ctx context.Context, keyword string) error
	IncrementVendorRuleUseCount(ctx context.Context, keyword string) error

	// Automation rule operations
	GetAutomationRules(ctx context.Context) ([]model.AutomationRule, error)
	SaveAutomationRule(ctx context.Context, rule *model.AutomationRule) error
	SetAutomationRuleEnabled(ctx context.Context, id int64, enabled bool) error
	IncrementRuleTriggerCount(ctx context.Context, id int64) error
	DeleteAutomationRule(ctx context.Context, id int64) error

	// Approval config (singleton row)
	GetApprovalConfig(ctx context.Context) (*model.AutoApprovalConfig, error)
	SaveApprovalConfig(ctx context.Context, cfg *model.AutoApprovalConfig) error

	// Bank and ledger operations
	SaveBankTransactions(ctx context.Context, txns []model.BankTransaction) error
	GetBankTransactions(ctx context.Context, start, end time.Time) ([]model.BankTransaction, error)
	SavePostedEntries(ctx context.Context, entries []model.PostedGLEntry) error
	GetPostedEntries(ctx context.Context, start, end time.Time) ([]model.PostedGLEntry, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// BankFeed is a source of bank transactions for reconciliation, such as a
// parsed OFX statement or a Plaid connection.
type BankFeed interface {
	GetTransactions(ctx context.Context, start, end time.Time) ([]model.BankTransaction, error)
}
