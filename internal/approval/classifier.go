// Package approval decides whether a document may bypass human review.
package approval

import (
	"fmt"
	"strings"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/risk"
)

// Classifier evaluates the auto-approval gates against a document. Every
// gate is checked even after one fails, so the decision carries every
// blocking reason at once. The classifier never returns an error: a document
// it cannot evaluate is simply not approved, with the cause recorded as a
// reason. It must never default to approval on an internal failure.
type Classifier struct {
	risk *risk.Engine
}

// NewClassifier creates a classifier backed by the given risk engine.
func NewClassifier(riskEngine *risk.Engine) *Classifier {
	return &Classifier{risk: riskEngine}
}

// Evaluate runs the fixed gate sequence: automation enabled, amount ceiling,
// confidence floor, full-tax-invoice requirement, audit-flag requirement,
// allowed document types. All gates must pass (AND semantics).
//
// Independently of configuration, a critical risk finding always blocks.
func (c *Classifier) Evaluate(rec *model.DocumentRecord, existing []model.DocumentRecord, cfg model.AutoApprovalConfig) model.ApprovalDecision {
	if rec == nil || rec.Extracted == nil {
		return model.ApprovalDecision{
			Approved: false,
			Reasons:  []string{"document has no extraction result"},
		}
	}
	doc := rec.Extracted

	var reasons []string

	if !cfg.Enabled {
		reasons = append(reasons, "auto-approval is disabled")
	}

	if doc.GrandTotal == nil {
		skipped := &common.ClassificationSkipped{Reason: "no grand total extracted"}
		reasons = append(reasons, skipped.Error())
	} else if *doc.GrandTotal > cfg.MaxAmount {
		reasons = append(reasons, fmt.Sprintf("amount %.2f exceeds limit %.2f", *doc.GrandTotal, cfg.MaxAmount))
	}

	if doc.Confidence == nil {
		skipped := &common.ClassificationSkipped{Reason: "no confidence score extracted"}
		reasons = append(reasons, skipped.Error())
	} else if *doc.Confidence < cfg.MinConfidence {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below minimum %.2f", *doc.Confidence, cfg.MinConfidence))
	}

	if cfg.RequireFullTaxInvoice && !doc.IsFullTaxInvoice {
		reasons = append(reasons, "not a full tax invoice")
	}

	findings := c.risk.Evaluate(rec, existing)
	if risk.HasCritical(findings) {
		reasons = append(reasons, "critical risk finding blocks approval")
	} else if cfg.RequireNoAuditFlags && risk.HasBlocking(findings) {
		blocking := 0
		for _, f := range findings {
			if f.Severity != model.SeverityInfo {
				blocking++
			}
		}
		reasons = append(reasons, fmt.Sprintf("%d audit finding(s) require review", blocking))
	}

	if !c.docTypeAllowed(doc.DocType, cfg.AllowedDocTypes) {
		reasons = append(reasons, fmt.Sprintf("document type %q is not allowed for auto-approval", doc.DocType))
	}

	return model.ApprovalDecision{
		Approved: len(reasons) == 0,
		Reasons:  reasons,
	}
}

func (c *Classifier) docTypeAllowed(docType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(t, docType) {
			return true
		}
	}
	return false
}
