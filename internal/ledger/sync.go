// Package ledger keeps a document's withholding-tax fields and its generated
// journal entry mutually consistent during human review.
package ledger

import (
	"math"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

// Synchronizer propagates withholding changes into the journal entry and
// validates journal edits. Propagation is one-directional: withholding
// fields drive the journal, never the reverse. A reviewer who edits the
// withholding line in the journal editor takes manual ownership of it, which
// suppresses further automatic rewrites of that line.
type Synchronizer struct{}

// NewSynchronizer creates a ledger synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// ApplyWithholdingChange sets the withholding flag and rate on the document
// and upserts or removes the withholding-payable journal line so that the
// invariant holds: the flag is true iff the journal carries exactly one
// credit line on the WHT payable account, with amount subtotal × rate / 100.
//
// A nil or negative subtotal while enabling withholding is rejected with a
// ValidationError rather than clamped; a silently zeroed liability line
// would understate tax owed.
func (s *Synchronizer) ApplyWithholdingChange(doc *model.ExtractedDocument, whtFlag bool, whtRate float64) (*model.ExtractedDocument, error) {
	if doc == nil {
		return nil, common.NewValidationError("document", "document is nil")
	}

	if whtFlag {
		if doc.Subtotal == nil {
			return nil, common.NewValidationError("subtotal", "missing subtotal, cannot compute withholding amount")
		}
		if *doc.Subtotal < 0 {
			return nil, common.NewValidationError("subtotal", "negative subtotal, cannot compute withholding amount")
		}
		if whtRate < 0 {
			return nil, common.NewValidationError("wht_rate", "negative withholding rate")
		}
	}

	doc.WHTFlag = whtFlag
	doc.WHTRate = whtRate

	if doc.WHTManualOverride {
		// Reviewer owns the withholding line; leave the journal untouched
		// and keep the stored amount in line with whatever they entered.
		return doc, nil
	}

	journal := doc.Journal.Clone()
	idx := journal.FindAccount(model.WHTPayableAccountCode)

	if !whtFlag {
		if idx >= 0 {
			// The withheld amount flows back into the settlement credit.
			adjustClearing(journal, journal[idx].Amount)
			journal = append(journal[:idx], journal[idx+1:]...)
		}
		if err := checkBalance(journal); err != nil {
			return nil, err
		}
		doc.Journal = journal
		doc.WHTAmount = nil
		doc.WHTRate = 0
		return doc, nil
	}

	amount := round2(*doc.Subtotal * whtRate / 100)

	// A document without a journal only gets its fields updated here; the
	// withholding line is emitted when the journal is generated.
	if len(journal) > 0 {
		if idx >= 0 {
			adjustClearing(journal, journal[idx].Amount-amount)
			journal[idx].Side = model.Credit
			journal[idx].Amount = amount
		} else {
			adjustClearing(journal, -amount)
			journal = append(journal, model.JournalLine{
				AccountCode: model.WHTPayableAccountCode,
				AccountName: model.WHTPayableAccountName,
				Side:        model.Credit,
				Amount:      amount,
			})
		}
		if err := checkBalance(journal); err != nil {
			return nil, err
		}
	}

	doc.Journal = journal
	doc.WHTAmount = &amount
	return doc, nil
}

// adjustClearing shifts the settlement credit by delta so a withholding
// change keeps the entry balanced: withholding more means paying the vendor
// less through clearing, and vice versa.
func adjustClearing(journal model.JournalEntry, delta float64) {
	if idx := journal.FindAccount(model.ClearingAccountCode); idx >= 0 {
		journal[idx].Amount = round2(journal[idx].Amount + delta)
	}
}

// checkBalance rejects a journal that no longer balances, e.g. one that lost
// its clearing line to a manual edit and cannot absorb a withholding change.
func checkBalance(journal model.JournalEntry) error {
	if len(journal) > 0 && !journal.Balanced() {
		return &common.ConsistencyError{
			DebitTotal:  journal.DebitTotal(),
			CreditTotal: journal.CreditTotal(),
		}
	}
	return nil
}

// ApplyJournalEdit replaces the document's journal entry with reviewer-
// edited lines. The edit is rejected with a ConsistencyError when the new
// entry does not balance within model.BalanceEpsilon.
//
// When the edit changes or removes the withholding line relative to what the
// withholding fields would generate, the document is tagged as manually
// overridden so later withholding-side changes do not silently undo the
// reviewer's work. The withholding fields themselves are not re-derived from
// the journal.
func (s *Synchronizer) ApplyJournalEdit(doc *model.ExtractedDocument, lines model.JournalEntry) (*model.ExtractedDocument, error) {
	if doc == nil {
		return nil, common.NewValidationError("document", "document is nil")
	}

	for _, line := range lines {
		if line.Amount < 0 {
			return nil, common.NewValidationError("amount", "journal line amounts must be non-negative")
		}
		if line.Side != model.Debit && line.Side != model.Credit {
			return nil, common.NewValidationError("side", "journal line side must be DEBIT or CREDIT")
		}
	}

	if !lines.Balanced() {
		return nil, &common.ConsistencyError{
			DebitTotal:  lines.DebitTotal(),
			CreditTotal: lines.CreditTotal(),
		}
	}

	if s.editsWithholdingLine(doc, lines) {
		doc.WHTManualOverride = true
	}

	doc.Journal = lines.Clone()
	return doc, nil
}

// editsWithholdingLine reports whether the edited lines disagree with the
// withholding line the current document fields would produce.
func (s *Synchronizer) editsWithholdingLine(doc *model.ExtractedDocument, lines model.JournalEntry) bool {
	newIdx := lines.FindAccount(model.WHTPayableAccountCode)

	if !doc.WHTFlag {
		// Adding a withholding line to a document without the flag is a
		// manual decision.
		return newIdx >= 0
	}

	if newIdx < 0 {
		return true
	}

	if doc.Subtotal == nil {
		return true
	}

	expected := round2(*doc.Subtotal * doc.WHTRate / 100)
	line := lines[newIdx]
	return line.Side != model.Credit || math.Abs(line.Amount-expected) > model.BalanceEpsilon
}

// ClearManualOverride releases reviewer ownership of the withholding line
// and immediately re-synchronizes the journal from the withholding fields.
func (s *Synchronizer) ClearManualOverride(doc *model.ExtractedDocument) (*model.ExtractedDocument, error) {
	if doc == nil {
		return nil, common.NewValidationError("document", "document is nil")
	}
	doc.WHTManualOverride = false
	return s.ApplyWithholdingChange(doc, doc.WHTFlag, doc.WHTRate)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
