package model

// RiskSeverity classifies how serious a risk finding is. Severity carries no
// numeric score; it gates review affordances and the auto-approval
// classifier. Any critical finding blocks approval outright.
type RiskSeverity string

const (
	// SeverityCritical blocks submission and approval.
	SeverityCritical RiskSeverity = "critical"
	// SeverityWarning requires reviewer attention but does not block submission.
	SeverityWarning RiskSeverity = "warning"
	// SeverityInfo is advisory only.
	SeverityInfo RiskSeverity = "info"
)

// Risk finding codes produced by the rule engine.
const (
	RiskDuplicateInvoice = "duplicate_invoice"
	RiskVATMismatch      = "vat_mismatch"
	RiskWHTSuggested     = "wht_suggested"
	RiskVATNotClaimable  = "vat_not_claimable"
)

// RiskFinding is one advisory result from the risk rule engine. Findings are
// transient: recomputed on every evaluation and never persisted directly.
type RiskFinding struct {
	Severity RiskSeverity `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
}
