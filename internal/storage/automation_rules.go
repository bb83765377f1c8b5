package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

// GetAutomationRules retrieves all automation rules in creation order.
func (s *SQLiteStorage) GetAutomationRules(ctx context.Context) ([]model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, enabled, conditions, trigger_count, created_at, updated_at
		FROM automation_rules
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.AutomationRule
	for rows.Next() {
		var rule model.AutomationRule
		var conditionsJSON string
		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Enabled,
			&conditionsJSON,
			&rule.TriggerCount,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation rule: %w", err)
		}

		if unmarshalErr := json.Unmarshal([]byte(conditionsJSON), &rule.Conditions); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal rule conditions: %w", unmarshalErr)
		}

		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// SaveAutomationRule inserts a new rule or updates an existing one.
func (s *SQLiteStorage) SaveAutomationRule(ctx context.Context, rule *model.AutomationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	conditionsJSON, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal rule conditions: %w", err)
	}

	now := time.Now()
	rule.UpdatedAt = now

	if rule.ID == 0 {
		rule.CreatedAt = now
		result, execErr := s.db.ExecContext(ctx, `
			INSERT INTO automation_rules (name, enabled, conditions, trigger_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rule.Name, rule.Enabled, string(conditionsJSON), rule.TriggerCount, rule.CreatedAt, rule.UpdatedAt)
		if execErr != nil {
			return fmt.Errorf("failed to insert automation rule: %w", execErr)
		}
		rule.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get rule ID: %w", err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET name = ?, enabled = ?, conditions = ?, updated_at = ?
		WHERE id = ?
	`, rule.Name, rule.Enabled, string(conditionsJSON), rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update automation rule: %w", err)
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

// SetAutomationRuleEnabled toggles a rule without touching its conditions.
func (s *SQLiteStorage) SetAutomationRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle automation rule: %w", err)
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

// IncrementRuleTriggerCount bumps a rule's trigger counter.
func (s *SQLiteStorage) IncrementRuleTriggerCount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET trigger_count = trigger_count + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment trigger count: %w", err)
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

// DeleteAutomationRule removes a rule.
func (s *SQLiteStorage) DeleteAutomationRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM automation_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete automation rule: %w", err)
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
