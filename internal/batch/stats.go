package batch

import (
	"time"

	"github.com/nateechai/docledger/internal/model"
)

// CalculateAutomationStats is a pure reduction over a date-bounded document
// set: how many documents the pipeline handled without a human, how much
// money it approved, and the resulting automation rate in percent.
func CalculateAutomationStats(docs []model.DocumentRecord, start, end time.Time) model.AutomationStats {
	var stats model.AutomationStats

	for i := range docs {
		rec := &docs[i]
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}

		stats.TotalDocuments++

		if rec.Status == model.StatusApproved && rec.ApprovalSource == model.ApprovedAutomatically {
			stats.AutoProcessed++
			if rec.Extracted != nil && rec.Extracted.GrandTotal != nil {
				stats.AutoApprovedAmount += *rec.Extracted.GrandTotal
			}
		} else if rec.Status == model.StatusApproved || rec.Status == model.StatusRejected {
			stats.ManuallyProcessed++
		}
	}

	if stats.TotalDocuments > 0 {
		stats.AutomationRate = float64(stats.AutoProcessed) / float64(stats.TotalDocuments) * 100
	}

	return stats
}
