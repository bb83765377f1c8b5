package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

// SaveBankTransactions inserts imported bank transactions, skipping rows
// already present by dedup hash so re-importing a statement is harmless.
// A transaction whose ID was already imported with different details is a
// feed inconsistency and fails with ErrDuplicateEntry instead of silently
// overwriting or dropping the row.
func (s *SQLiteStorage) SaveBankTransactions(ctx context.Context, txns []model.BankTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bank_transactions (id, hash, date, amount, description, account_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		txn := &txns[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		var existingHash string
		lookupErr := tx.QueryRowContext(ctx,
			`SELECT hash FROM bank_transactions WHERE id = ?`, txn.ID).Scan(&existingHash)
		switch {
		case lookupErr == nil && existingHash == txn.Hash:
			continue
		case lookupErr == nil:
			return fmt.Errorf("%w: bank transaction %s already imported with different details",
				common.ErrDuplicateEntry, txn.ID)
		case !errors.Is(lookupErr, sql.ErrNoRows):
			return fmt.Errorf("failed to check bank transaction %s: %w", txn.ID, lookupErr)
		}

		if _, execErr := stmt.ExecContext(ctx, txn.ID, txn.Hash, txn.Date, txn.Amount,
			txn.Description, txn.AccountID, txn.Source); execErr != nil {
			return fmt.Errorf("failed to insert bank transaction %s: %w", txn.ID, execErr)
		}
	}

	return tx.Commit()
}

// GetBankTransactions retrieves bank transactions within the date range,
// oldest first.
func (s *SQLiteStorage) GetBankTransactions(ctx context.Context, start, end time.Time) ([]model.BankTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, date, amount, description, account_id, source
		FROM bank_transactions
		WHERE date >= ? AND date <= ?
		ORDER BY date, id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.BankTransaction
	for rows.Next() {
		var txn model.BankTransaction
		err := rows.Scan(&txn.ID, &txn.Hash, &txn.Date, &txn.Amount,
			&txn.Description, &txn.AccountID, &txn.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// SavePostedEntries appends GL entries generated for an approved document.
func (s *SQLiteStorage) SavePostedEntries(ctx context.Context, entries []model.PostedGLEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posted_entries (document_id, date, amount, account_code, account_name, side, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range entries {
		entry := &entries[i]
		result, execErr := stmt.ExecContext(ctx, entry.DocumentID, entry.Date, entry.Amount,
			entry.AccountCode, entry.AccountName, string(entry.Side), entry.Description)
		if execErr != nil {
			return fmt.Errorf("failed to insert posted entry: %w", execErr)
		}
		if entry.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get entry ID: %w", err)
		}
	}

	return tx.Commit()
}

// GetPostedEntries retrieves posted GL entries within the date range,
// oldest first.
func (s *SQLiteStorage) GetPostedEntries(ctx context.Context, start, end time.Time) ([]model.PostedGLEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, date, amount, account_code, account_name, side, description
		FROM posted_entries
		WHERE date >= ? AND date <= ?
		ORDER BY date, id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.PostedGLEntry
	for rows.Next() {
		var entry model.PostedGLEntry
		var side string
		err := rows.Scan(&entry.ID, &entry.DocumentID, &entry.Date, &entry.Amount,
			&entry.AccountCode, &entry.AccountName, &side, &entry.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posted entry: %w", err)
		}
		entry.Side = model.JournalSide(side)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
