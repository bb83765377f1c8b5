package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

// GetVendorRules retrieves all vendor rules, ordered by keyword.
func (s *SQLiteStorage) GetVendorRules(ctx context.Context) ([]model.VendorRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, account_code, account_name, vat_treatment, client_id, source, use_count, last_updated
		FROM vendor_rules
		ORDER BY keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.VendorRule
	for rows.Next() {
		var rule model.VendorRule
		err := rows.Scan(
			&rule.Keyword,
			&rule.AccountCode,
			&rule.AccountName,
			&rule.VATTreatment,
			&rule.ClientID,
			&rule.Source,
			&rule.UseCount,
			&rule.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// GetVendorRule retrieves a single rule by keyword.
func (s *SQLiteStorage) GetVendorRule(ctx context.Context, keyword string) (*model.VendorRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}

	var rule model.VendorRule
	err := s.db.QueryRowContext(ctx, `
		SELECT keyword, account_code, account_name, vat_treatment, client_id, source, use_count, last_updated
		FROM vendor_rules
		WHERE keyword = ?
	`, keyword).Scan(
		&rule.Keyword,
		&rule.AccountCode,
		&rule.AccountName,
		&rule.VATTreatment,
		&rule.ClientID,
		&rule.Source,
		&rule.UseCount,
		&rule.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor rule: %w", err)
	}

	return &rule, nil
}

// SaveVendorRule saves or updates a vendor rule, keyed by keyword.
func (s *SQLiteStorage) SaveVendorRule(ctx context.Context, rule *model.VendorRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendorRule(rule); err != nil {
		return err
	}

	if rule.LastUpdated.IsZero() {
		rule.LastUpdated = time.Now()
	}
	if rule.Source == "" {
		rule.Source = model.RuleSourceLearned
	}
	if rule.VATTreatment == "" {
		rule.VATTreatment = model.VATClaimable
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vendor_rules (keyword, account_code, account_name, vat_treatment, client_id, source, use_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			account_code = excluded.account_code,
			account_name = excluded.account_name,
			vat_treatment = excluded.vat_treatment,
			client_id = excluded.client_id,
			source = excluded.source,
			use_count = excluded.use_count,
			last_updated = excluded.last_updated
	`, rule.Keyword, rule.AccountCode, rule.AccountName, string(rule.VATTreatment),
		rule.ClientID, string(rule.Source), rule.UseCount, rule.LastUpdated)

	if err != nil {
		return fmt.Errorf("failed to save vendor rule: %w", err)
	}

	return nil
}

// DeleteVendorRule deletes a rule by keyword.
func (s *SQLiteStorage) DeleteVendorRule(ctx context.Context, keyword string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM vendor_rules WHERE keyword = ?`, keyword)
	if err != nil {
		return fmt.Errorf("failed to delete vendor rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// IncrementVendorRuleUseCount bumps a rule's use counter.
func (s *SQLiteStorage) IncrementVendorRuleUseCount(ctx context.Context, keyword string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE vendor_rules
		SET use_count = use_count + 1, last_updated = CURRENT_TIMESTAMP
		WHERE keyword = ?
	`, keyword)
	if err != nil {
		return fmt.Errorf("failed to increment vendor rule use count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
