// Package risk implements the deterministic tax and audit risk checks run
// against every extracted document.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/nateechai/docledger/internal/model"
)

const (
	// vatRate is the standard Thai VAT rate used by the consistency check.
	vatRate = 0.07
	// vatTolerance is the absolute currency tolerance for the VAT
	// consistency check. Not a percentage.
	vatTolerance = 1.00
	// whtSubtotalFloor is the minimum subtotal at which the withholding
	// heuristic considers a document at all.
	whtSubtotalFloor = 1000.0
)

// serviceKeywords are description fragments suggesting services, labor or
// repair work, for which withholding tax typically applies. Matching is
// case-insensitive.
var serviceKeywords = []string{
	// Thai
	"ค่าบริการ",
	"บริการ",
	"ค่าแรง",
	"ซ่อม",
	"ติดตั้ง",
	"ขนส่ง",
	"ค่าเช่า",
	"จ้าง",
	// English
	"service",
	"labor",
	"labour",
	"repair",
	"install",
	"maintenance",
	"freight",
	"transport",
	"rental",
	"hire",
}

// Engine evaluates the fixed risk rule set. It is stateless; Evaluate is a
// pure function of its inputs.
type Engine struct{}

// NewEngine creates a risk rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every rule against the document and returns findings in a
// fixed order: duplicate check, VAT consistency, withholding heuristic,
// non-deductible VAT. Rules are independent; none short-circuits another.
// Absent or nil fields mean a rule does not apply; extraction output is
// probabilistic, so a missing field is never an error here.
func (e *Engine) Evaluate(rec *model.DocumentRecord, existing []model.DocumentRecord) []model.RiskFinding {
	if rec == nil || rec.Extracted == nil {
		return nil
	}
	doc := rec.Extracted

	var findings []model.RiskFinding

	if f := e.checkDuplicate(rec, existing); f != nil {
		findings = append(findings, *f)
	}
	if f := e.checkVATConsistency(doc); f != nil {
		findings = append(findings, *f)
	}
	if f := e.checkWHTApplicability(doc); f != nil {
		findings = append(findings, *f)
	}
	if f := e.checkNonDeductibleVAT(doc); f != nil {
		findings = append(findings, *f)
	}

	return findings
}

// checkDuplicate flags a critical finding when another record carries the
// same invoice number for the same client company. The record itself is
// excluded by identity, so two copies of the same invoice never flag each
// other as their own duplicate.
func (e *Engine) checkDuplicate(rec *model.DocumentRecord, existing []model.DocumentRecord) *model.RiskFinding {
	doc := rec.Extracted
	if doc.InvoiceNumber == "" {
		return nil
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == rec.ID || other.Extracted == nil {
			continue
		}
		if other.Extracted.InvoiceNumber == doc.InvoiceNumber &&
			strings.EqualFold(other.Extracted.ClientCompany, doc.ClientCompany) {
			return &model.RiskFinding{
				Severity: model.SeverityCritical,
				Code:     model.RiskDuplicateInvoice,
				Message: fmt.Sprintf("invoice %s already recorded for %s (document %s)",
					doc.InvoiceNumber, doc.ClientCompany, other.ID),
			}
		}
	}

	return nil
}

// checkVATConsistency recomputes the expected VAT from the subtotal and
// flags a warning when the extracted amount deviates by more than the fixed
// tolerance. Only full tax invoices are checked.
func (e *Engine) checkVATConsistency(doc *model.ExtractedDocument) *model.RiskFinding {
	if !doc.IsFullTaxInvoice || doc.Subtotal == nil || doc.VATAmount == nil {
		return nil
	}

	expected := *doc.Subtotal * vatRate
	diff := math.Abs(expected - *doc.VATAmount)
	if diff <= vatTolerance {
		return nil
	}

	return &model.RiskFinding{
		Severity: model.SeverityWarning,
		Code:     model.RiskVATMismatch,
		Message: fmt.Sprintf("VAT amount %.2f differs from expected %.2f (subtotal %.2f × 7%%)",
			*doc.VATAmount, expected, *doc.Subtotal),
	}
}

// checkWHTApplicability suggests withholding tax when a sufficiently large
// document has no WHT flag but its description mentions services, labor or
// repair work.
func (e *Engine) checkWHTApplicability(doc *model.ExtractedDocument) *model.RiskFinding {
	if doc.WHTFlag || doc.Subtotal == nil || *doc.Subtotal < whtSubtotalFloor {
		return nil
	}

	description := strings.ToLower(doc.Description)
	for _, keyword := range serviceKeywords {
		if strings.Contains(description, keyword) {
			return &model.RiskFinding{
				Severity: model.SeverityInfo,
				Code:     model.RiskWHTSuggested,
				Message: fmt.Sprintf("description mentions %q; withholding tax may apply to this %.2f service charge",
					keyword, *doc.Subtotal),
			}
		}
	}

	return nil
}

// checkNonDeductibleVAT notes that VAT on a non-claimable document is
// capitalized into cost rather than claimed as input VAT.
func (e *Engine) checkNonDeductibleVAT(doc *model.ExtractedDocument) *model.RiskFinding {
	if doc.VATClaimable || doc.VATAmount == nil || *doc.VATAmount <= 0 {
		return nil
	}

	return &model.RiskFinding{
		Severity: model.SeverityInfo,
		Code:     model.RiskVATNotClaimable,
		Message: fmt.Sprintf("VAT of %.2f is not claimable and was capitalized into cost",
			*doc.VATAmount),
	}
}

// HasBlocking reports whether any finding is severe enough to block
// auto-approval. Critical and warning findings block; info findings do not.
func HasBlocking(findings []model.RiskFinding) bool {
	for _, f := range findings {
		if f.Severity == model.SeverityCritical || f.Severity == model.SeverityWarning {
			return true
		}
	}
	return false
}

// HasCritical reports whether any finding carries critical severity. A
// critical finding blocks submission and approval outright.
func HasCritical(findings []model.RiskFinding) bool {
	for _, f := range findings {
		if f.Severity == model.SeverityCritical {
			return true
		}
	}
	return false
}
