// Package model defines the core domain types shared across the application.
package model

import "time"

// DocumentStatus represents the workflow state of a document record.
type DocumentStatus string

const (
	// StatusPendingReview indicates a document awaiting human or automated review.
	StatusPendingReview DocumentStatus = "pending_review"
	// StatusApproved indicates a document approved for posting.
	StatusApproved DocumentStatus = "approved"
	// StatusProcessing indicates a document currently being processed.
	StatusProcessing DocumentStatus = "processing"
	// StatusRejected indicates a document rejected during review.
	StatusRejected DocumentStatus = "rejected"
)

// ExtractedDocument is the structured result of AI extraction over a scanned
// tax document. It is replaced wholesale on re-extraction; during human
// review the ledger synchronizer mutates it in place.
//
// Numeric fields that the extraction may fail to produce are pointers; a nil
// value means "not extracted", which downstream rules treat as "rule does
// not apply" rather than as an error.
type ExtractedDocument struct {
	InvoiceNumber string     `json:"invoice_number"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`

	VendorName    string `json:"vendor_name"`
	VendorTaxID   string `json:"vendor_tax_id,omitempty"`
	VendorBranch  string `json:"vendor_branch,omitempty"`
	ClientCompany string `json:"client_company"`

	Subtotal   *float64 `json:"subtotal,omitempty"`
	VATRate    float64  `json:"vat_rate,omitempty"`
	VATAmount  *float64 `json:"vat_amount,omitempty"`
	GrandTotal *float64 `json:"grand_total,omitempty"`
	WHTAmount  *float64 `json:"wht_amount,omitempty"`

	IsFullTaxInvoice bool    `json:"is_full_tax_invoice"`
	WHTFlag          bool    `json:"wht_flag"`
	WHTRate          float64 `json:"wht_rate,omitempty"`
	VATClaimable     bool    `json:"vat_claimable"`

	Description string   `json:"description,omitempty"`
	DocType     string   `json:"doc_type,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`

	Journal JournalEntry `json:"journal_entry,omitempty"`

	// WHTManualOverride is set when a reviewer edits the withholding line
	// directly in the journal editor. While set, withholding-side changes no
	// longer rewrite that line automatically.
	WHTManualOverride bool `json:"wht_manual_override,omitempty"`
}

// ApprovalSource records which path moved a document out of review.
type ApprovalSource string

const (
	// ApprovedAutomatically means the batch pipeline approved the document.
	ApprovedAutomatically ApprovalSource = "auto"
	// ApprovedManually means a staff member approved the document.
	ApprovedManually ApprovalSource = "manual"
)

// DocumentRecord is the persisted wrapper around an extracted document plus
// workflow metadata. Records are never physically deleted by the engine;
// rejection is a status transition.
type DocumentRecord struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Extracted      *ExtractedDocument
	ID             string
	ClientID       string
	AssignedStaff  string
	Status         DocumentStatus
	ApprovalSource ApprovalSource
	Version        int
}
