package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nateechai/docledger/internal/model"
)

// GetApprovalConfig retrieves the auto-approval configuration, falling back
// to defaults when no settings row has been written yet.
func (s *SQLiteStorage) GetApprovalConfig(ctx context.Context) (*model.AutoApprovalConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var cfg model.AutoApprovalConfig
	var docTypesJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT enabled, max_amount, min_confidence, require_full_tax_invoice, require_no_audit_flags, allowed_doc_types
		FROM approval_config
		WHERE id = 1
	`).Scan(
		&cfg.Enabled,
		&cfg.MaxAmount,
		&cfg.MinConfidence,
		&cfg.RequireFullTaxInvoice,
		&cfg.RequireNoAuditFlags,
		&docTypesJSON,
	)

	if err == sql.ErrNoRows {
		defaults := model.DefaultAutoApprovalConfig()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval config: %w", err)
	}

	if unmarshalErr := json.Unmarshal([]byte(docTypesJSON), &cfg.AllowedDocTypes); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal allowed doc types: %w", unmarshalErr)
	}

	return &cfg, nil
}

// SaveApprovalConfig persists the auto-approval configuration as the single
// settings row.
func (s *SQLiteStorage) SaveApprovalConfig(ctx context.Context, cfg *model.AutoApprovalConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("%w: config", ErrNilParameter)
	}

	docTypesJSON, err := json.Marshal(cfg.AllowedDocTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal allowed doc types: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO approval_config (id, enabled, max_amount, min_confidence, require_full_tax_invoice, require_no_audit_flags, allowed_doc_types, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			max_amount = excluded.max_amount,
			min_confidence = excluded.min_confidence,
			require_full_tax_invoice = excluded.require_full_tax_invoice,
			require_no_audit_flags = excluded.require_no_audit_flags,
			allowed_doc_types = excluded.allowed_doc_types,
			updated_at = excluded.updated_at
	`, cfg.Enabled, cfg.MaxAmount, cfg.MinConfidence,
		cfg.RequireFullTaxInvoice, cfg.RequireNoAuditFlags, string(docTypesJSON))

	if err != nil {
		return fmt.Errorf("failed to save approval config: %w", err)
	}

	return nil
}
