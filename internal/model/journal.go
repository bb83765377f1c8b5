package model

import "math"

// JournalSide is the side of a double-entry journal line.
type JournalSide string

const (
	// Debit is the debit side of an entry.
	Debit JournalSide = "DEBIT"
	// Credit is the credit side of an entry.
	Credit JournalSide = "CREDIT"
)

// Fixed chart-of-accounts codes the engine depends on.
const (
	// WHTPayableAccountCode is the liability account carrying withholding
	// tax deducted from vendor payments.
	WHTPayableAccountCode = "2132-00"
	// WHTPayableAccountName is the display name for the WHT payable account.
	WHTPayableAccountName = "Withholding Tax Payable (ภาษีหัก ณ ที่จ่าย)"
	// ClearingAccountCode is the AP/cash clearing account that appears on
	// nearly every generated entry and is never a vendor's expense account.
	ClearingAccountCode = "1130-00"
)

// BalanceEpsilon is the tolerance, in currency units, within which a posted
// entry's debit and credit totals must agree.
const BalanceEpsilon = 0.01

// JournalLine is one side of a double-entry posting to a named account.
type JournalLine struct {
	AccountCode string      `json:"account_code"`
	AccountName string      `json:"account_name"`
	Side        JournalSide `json:"side"`
	Amount      float64     `json:"amount"`
}

// JournalEntry is an ordered sequence of journal lines generated for a
// document.
type JournalEntry []JournalLine

// DebitTotal sums the amounts of all debit lines.
func (e JournalEntry) DebitTotal() float64 {
	var total float64
	for _, line := range e {
		if line.Side == Debit {
			total += line.Amount
		}
	}
	return total
}

// CreditTotal sums the amounts of all credit lines.
func (e JournalEntry) CreditTotal() float64 {
	var total float64
	for _, line := range e {
		if line.Side == Credit {
			total += line.Amount
		}
	}
	return total
}

// Balanced reports whether debits equal credits within BalanceEpsilon.
func (e JournalEntry) Balanced() bool {
	return math.Abs(e.DebitTotal()-e.CreditTotal()) <= BalanceEpsilon
}

// FindAccount returns the index of the first line posted to the given
// account code, or -1 if no such line exists.
func (e JournalEntry) FindAccount(accountCode string) int {
	for i, line := range e {
		if line.AccountCode == accountCode {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the entry.
func (e JournalEntry) Clone() JournalEntry {
	if e == nil {
		return nil
	}
	out := make(JournalEntry, len(e))
	copy(out, e)
	return out
}
