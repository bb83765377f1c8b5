package model

// AutoApprovalConfig holds the process-wide thresholds that decide whether a
// document may bypass human review. It is mutated only through an explicit
// settings action and read by every classification.
type AutoApprovalConfig struct {
	AllowedDocTypes       []string `json:"allowed_doc_types"`
	MaxAmount             float64  `json:"max_amount"`
	MinConfidence         float64  `json:"min_confidence"`
	Enabled               bool     `json:"enabled"`
	RequireFullTaxInvoice bool     `json:"require_full_tax_invoice"`
	RequireNoAuditFlags   bool     `json:"require_no_audit_flags"`
}

// DefaultAutoApprovalConfig returns conservative defaults: automation off,
// modest amount ceiling, high confidence floor.
func DefaultAutoApprovalConfig() AutoApprovalConfig {
	return AutoApprovalConfig{
		Enabled:               false,
		MaxAmount:             5000,
		MinConfidence:         0.85,
		RequireFullTaxInvoice: true,
		RequireNoAuditFlags:   true,
		AllowedDocTypes:       []string{"invoice", "receipt"},
	}
}

// ApprovalDecision is the result of evaluating a document against the
// auto-approval gates. When not approved, Reasons lists every blocking
// cause, not just the first.
type ApprovalDecision struct {
	Reasons  []string `json:"reasons,omitempty"`
	Approved bool     `json:"approved"`
}
