package model

// BatchItemFailure records one document that failed during a batch run. The
// failure is captured, never rethrown, so the rest of the batch proceeds.
type BatchItemFailure struct {
	DocID string `json:"doc_id"`
	Error string `json:"error"`
}

// BatchProcessResult summarizes one batch run. It is created fresh per run
// and immutable once returned.
type BatchProcessResult struct {
	Entries        []PostedGLEntry    `json:"entries,omitempty"`
	Errors         []BatchItemFailure `json:"errors,omitempty"`
	TotalProcessed int                `json:"total_processed"`
	AutoApproved   int                `json:"auto_approved"`
	AutoPosted     int                `json:"auto_posted"`
}

// AutomationStats is a pure reduction over a date-bounded document set.
type AutomationStats struct {
	TotalDocuments     int     `json:"total_documents"`
	AutoProcessed      int     `json:"auto_processed"`
	ManuallyProcessed  int     `json:"manually_processed"`
	AutoApprovedAmount float64 `json:"auto_approved_amount"`
	AutomationRate     float64 `json:"automation_rate"`
}
