package ledger

import (
	"time"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

// Default accounts used when no vendor rule supplies one.
const (
	defaultExpenseAccountCode = "5300-00"
	defaultExpenseAccountName = "General Expenses (ค่าใช้จ่ายทั่วไป)"
	inputVATAccountCode       = "1154-00"
	inputVATAccountName       = "Input VAT (ภาษีซื้อ)"
	clearingAccountName       = "AP Clearing (เจ้าหนี้รอตัดจ่าย)"
)

// BuildJournal generates a balanced double-entry posting for a document that
// arrived without one, using the vendor rule's account when available:
//
//	DEBIT  expense account        subtotal (plus VAT when not claimable)
//	DEBIT  input VAT              vat amount (claimable only)
//	CREDIT AP clearing            grand total less withholding
//	CREDIT WHT payable            subtotal × wht rate / 100 (flag set only)
//
// A nil subtotal or grand total is a ValidationError; journal generation is
// the one place where the engine refuses to guess missing numbers.
func BuildJournal(doc *model.ExtractedDocument, rule *model.VendorRule) (model.JournalEntry, error) {
	if doc == nil {
		return nil, common.NewValidationError("document", "document is nil")
	}
	if doc.Subtotal == nil {
		return nil, common.NewValidationError("subtotal", "missing subtotal, cannot generate journal entry")
	}
	if doc.GrandTotal == nil {
		return nil, common.NewValidationError("grand_total", "missing grand total, cannot generate journal entry")
	}
	if *doc.Subtotal < 0 || *doc.GrandTotal < 0 {
		return nil, common.NewValidationError("subtotal", "negative amounts cannot be posted")
	}

	expenseCode := defaultExpenseAccountCode
	expenseName := defaultExpenseAccountName
	claimable := doc.VATClaimable
	if rule != nil {
		expenseCode = rule.AccountCode
		expenseName = rule.AccountName
		claimable = rule.VATTreatment != model.VATNonClaimable
	}

	var vat float64
	if doc.VATAmount != nil {
		vat = *doc.VATAmount
	}

	var wht float64
	if doc.WHTFlag {
		wht = round2(*doc.Subtotal * doc.WHTRate / 100)
	}

	var entry model.JournalEntry

	expenseAmount := *doc.Subtotal
	if !claimable {
		expenseAmount += vat
	}
	entry = append(entry, model.JournalLine{
		AccountCode: expenseCode,
		AccountName: expenseName,
		Side:        model.Debit,
		Amount:      round2(expenseAmount),
	})

	if claimable && vat > 0 {
		entry = append(entry, model.JournalLine{
			AccountCode: inputVATAccountCode,
			AccountName: inputVATAccountName,
			Side:        model.Debit,
			Amount:      round2(vat),
		})
	}

	entry = append(entry, model.JournalLine{
		AccountCode: model.ClearingAccountCode,
		AccountName: clearingAccountName,
		Side:        model.Credit,
		Amount:      round2(*doc.GrandTotal - wht),
	})

	if doc.WHTFlag {
		entry = append(entry, model.JournalLine{
			AccountCode: model.WHTPayableAccountCode,
			AccountName: model.WHTPayableAccountName,
			Side:        model.Credit,
			Amount:      wht,
		})
	}

	if !entry.Balanced() {
		return nil, &common.ConsistencyError{
			DebitTotal:  entry.DebitTotal(),
			CreditTotal: entry.CreditTotal(),
		}
	}

	return entry, nil
}

// PostedEntries flattens a document's journal into GL entries ready for
// posting, dated by the document's issue date when it has one.
func PostedEntries(rec *model.DocumentRecord) []model.PostedGLEntry {
	date := time.Now()
	if rec.Extracted.IssueDate != nil {
		date = *rec.Extracted.IssueDate
	}

	entries := make([]model.PostedGLEntry, 0, len(rec.Extracted.Journal))
	for _, line := range rec.Extracted.Journal {
		entries = append(entries, model.PostedGLEntry{
			DocumentID:  rec.ID,
			Date:        date,
			Amount:      line.Amount,
			AccountCode: line.AccountCode,
			AccountName: line.AccountName,
			Side:        line.Side,
			Description: rec.Extracted.Description,
		})
	}
	return entries
}
