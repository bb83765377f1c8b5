package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/service"
)

const documentColumns = `
	id, invoice_number, issue_date, vendor_name, vendor_tax_id, vendor_branch,
	client_company, subtotal, vat_rate, vat_amount, grand_total, wht_amount,
	is_full_tax_invoice, wht_flag, wht_rate, vat_claimable, description,
	doc_type, confidence, journal, wht_manual_override, client_id,
	assigned_staff, status, approval_source, version, created_at, updated_at`

// SaveDocument inserts or replaces a document record.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, rec *model.DocumentRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(rec); err != nil {
		return err
	}

	doc := rec.Extracted

	journalJSON, err := json.Marshal(doc.Journal)
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			invoice_number = excluded.invoice_number,
			issue_date = excluded.issue_date,
			vendor_name = excluded.vendor_name,
			vendor_tax_id = excluded.vendor_tax_id,
			vendor_branch = excluded.vendor_branch,
			client_company = excluded.client_company,
			subtotal = excluded.subtotal,
			vat_rate = excluded.vat_rate,
			vat_amount = excluded.vat_amount,
			grand_total = excluded.grand_total,
			wht_amount = excluded.wht_amount,
			is_full_tax_invoice = excluded.is_full_tax_invoice,
			wht_flag = excluded.wht_flag,
			wht_rate = excluded.wht_rate,
			vat_claimable = excluded.vat_claimable,
			description = excluded.description,
			doc_type = excluded.doc_type,
			confidence = excluded.confidence,
			journal = excluded.journal,
			wht_manual_override = excluded.wht_manual_override,
			client_id = excluded.client_id,
			assigned_staff = excluded.assigned_staff,
			status = excluded.status,
			approval_source = excluded.approval_source,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		rec.ID, doc.InvoiceNumber, doc.IssueDate, doc.VendorName, doc.VendorTaxID,
		doc.VendorBranch, doc.ClientCompany, doc.Subtotal, doc.VATRate, doc.VATAmount,
		doc.GrandTotal, doc.WHTAmount, doc.IsFullTaxInvoice, doc.WHTFlag, doc.WHTRate,
		doc.VATClaimable, doc.Description, doc.DocType, doc.Confidence, string(journalJSON),
		doc.WHTManualOverride, rec.ClientID, rec.AssignedStaff, string(rec.Status),
		string(rec.ApprovalSource), rec.Version, rec.CreatedAt, rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// GetDocumentByID retrieves a single document record.
func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	rec, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return rec, nil
}

// GetDocuments retrieves document records matching the filter, newest first.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, filter service.DocumentFilter) ([]model.DocumentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, ErrInvalidDateRange
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.StartDate != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND created_at <= ?`
		args = append(args, *filter.EndDate)
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.DocumentRecord
	for rows.Next() {
		rec, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan document: %w", scanErr)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetPendingDocuments retrieves every document awaiting review, oldest
// first, so batches work through the backlog in arrival order.
func (s *SQLiteStorage) GetPendingDocuments(ctx context.Context) ([]model.DocumentRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE status = ?
		ORDER BY created_at, id
	`, string(model.StatusPendingReview))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.DocumentRecord
	for rows.Next() {
		rec, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan document: %w", scanErr)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// UpdateDocumentStatus applies a status transition guarded by an optimistic
// version check. When the stored version differs from expectedVersion the
// transition is refused with common.ErrVersionConflict, which is how
// concurrent batches avoid posting the same document twice.
func (s *SQLiteStorage) UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, source model.ApprovalSource, expectedVersion int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	approvalSource := string(source)

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?,
			approval_source = CASE WHEN ? != '' THEN ? ELSE approval_source END,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`, string(status), approvalSource, approvalSource, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if scanErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM documents WHERE id = ?)`, id).Scan(&exists); scanErr == nil && !exists {
			return common.ErrNotFound
		}
		return common.ErrVersionConflict
	}

	return nil
}

// UpdateExtractedDocument persists the extraction payload, including the
// synchronized journal, without touching workflow metadata.
func (s *SQLiteStorage) UpdateExtractedDocument(ctx context.Context, id string, doc *model.ExtractedDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: extracted document", ErrNilParameter)
	}

	journalJSON, err := json.Marshal(doc.Journal)
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET invoice_number = ?, issue_date = ?, vendor_name = ?, vendor_tax_id = ?,
			vendor_branch = ?, client_company = ?, subtotal = ?, vat_rate = ?,
			vat_amount = ?, grand_total = ?, wht_amount = ?, is_full_tax_invoice = ?,
			wht_flag = ?, wht_rate = ?, vat_claimable = ?, description = ?,
			doc_type = ?, confidence = ?, journal = ?, wht_manual_override = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		doc.InvoiceNumber, doc.IssueDate, doc.VendorName, doc.VendorTaxID,
		doc.VendorBranch, doc.ClientCompany, doc.Subtotal, doc.VATRate,
		doc.VATAmount, doc.GrandTotal, doc.WHTAmount, doc.IsFullTaxInvoice,
		doc.WHTFlag, doc.WHTRate, doc.VATClaimable, doc.Description,
		doc.DocType, doc.Confidence, string(journalJSON), doc.WHTManualOverride, id)
	if err != nil {
		return fmt.Errorf("failed to update extracted document: %w", err)
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

// scanner abstracts sql.Row and sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*model.DocumentRecord, error) {
	var (
		rec            model.DocumentRecord
		doc            model.ExtractedDocument
		issueDate      sql.NullTime
		journalJSON    sql.NullString
		status         string
		approvalSource sql.NullString
	)

	err := row.Scan(
		&rec.ID, &doc.InvoiceNumber, &issueDate, &doc.VendorName, &doc.VendorTaxID,
		&doc.VendorBranch, &doc.ClientCompany, &doc.Subtotal, &doc.VATRate,
		&doc.VATAmount, &doc.GrandTotal, &doc.WHTAmount, &doc.IsFullTaxInvoice,
		&doc.WHTFlag, &doc.WHTRate, &doc.VATClaimable, &doc.Description,
		&doc.DocType, &doc.Confidence, &journalJSON, &doc.WHTManualOverride,
		&rec.ClientID, &rec.AssignedStaff, &status, &approvalSource,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if issueDate.Valid {
		doc.IssueDate = &issueDate.Time
	}
	if journalJSON.Valid && journalJSON.String != "" && journalJSON.String != "null" {
		if unmarshalErr := json.Unmarshal([]byte(journalJSON.String), &doc.Journal); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal journal: %w", unmarshalErr)
		}
	}

	rec.Status = model.DocumentStatus(status)
	if approvalSource.Valid {
		rec.ApprovalSource = model.ApprovalSource(approvalSource.String)
	}
	rec.Extracted = &doc

	return &rec, nil
}
