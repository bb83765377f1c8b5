package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: documents, vendor rules, approval config",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS documents (
					id TEXT PRIMARY KEY,
					invoice_number TEXT,
					issue_date DATETIME,
					vendor_name TEXT,
					vendor_tax_id TEXT,
					vendor_branch TEXT,
					client_company TEXT,
					subtotal REAL,
					vat_rate REAL DEFAULT 0,
					vat_amount REAL,
					grand_total REAL,
					wht_amount REAL,
					is_full_tax_invoice INTEGER DEFAULT 0,
					wht_flag INTEGER DEFAULT 0,
					wht_rate REAL DEFAULT 0,
					vat_claimable INTEGER DEFAULT 0,
					description TEXT,
					doc_type TEXT,
					confidence REAL,
					journal TEXT,
					wht_manual_override INTEGER DEFAULT 0,
					client_id TEXT,
					assigned_staff TEXT,
					status TEXT NOT NULL DEFAULT 'pending_review',
					approval_source TEXT,
					version INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_documents_status ON documents(status)`,
				`CREATE INDEX idx_documents_invoice ON documents(invoice_number, client_company)`,
				`CREATE INDEX idx_documents_created ON documents(created_at)`,

				`CREATE TABLE IF NOT EXISTS vendor_rules (
					keyword TEXT PRIMARY KEY,
					account_code TEXT NOT NULL,
					account_name TEXT,
					vat_treatment TEXT NOT NULL DEFAULT 'claimable',
					client_id TEXT DEFAULT '',
					source TEXT NOT NULL DEFAULT 'LEARNED',
					use_count INTEGER DEFAULT 0,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS approval_config (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					enabled INTEGER NOT NULL DEFAULT 0,
					max_amount REAL NOT NULL DEFAULT 5000,
					min_confidence REAL NOT NULL DEFAULT 0.85,
					require_full_tax_invoice INTEGER NOT NULL DEFAULT 1,
					require_no_audit_flags INTEGER NOT NULL DEFAULT 1,
					allowed_doc_types TEXT NOT NULL DEFAULT '["invoice","receipt"]',
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Automation rules with trigger telemetry",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS automation_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					enabled INTEGER NOT NULL DEFAULT 1,
					conditions TEXT NOT NULL,
					trigger_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Bank transactions and posted GL entries for reconciliation",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS bank_transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					amount REAL NOT NULL,
					description TEXT,
					account_id TEXT,
					source TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_bank_transactions_date ON bank_transactions(date)`,

				`CREATE TABLE IF NOT EXISTS posted_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					amount REAL NOT NULL,
					account_code TEXT NOT NULL,
					account_name TEXT,
					side TEXT NOT NULL,
					description TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (document_id) REFERENCES documents(id)
				)`,
				`CREATE INDEX idx_posted_entries_date ON posted_entries(date)`,
				`CREATE INDEX idx_posted_entries_document ON posted_entries(document_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
