package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// BankTransaction is a single line from an imported bank statement or bank
// feed, used as the bank side of reconciliation.
type BankTransaction struct {
	Date        time.Time
	ID          string
	Description string
	AccountID   string
	Hash        string
	Source      string
	Amount      float64
}

// GenerateHash creates a unique hash for duplicate detection across repeated
// statement imports.
func (t *BankTransaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// PostedGLEntry is one side of a posted general-ledger entry, used as the
// ledger side of reconciliation and as the batch processor's output.
type PostedGLEntry struct {
	Date        time.Time
	DocumentID  string
	AccountCode string
	AccountName string
	Description string
	Side        JournalSide
	ID          int64
	Amount      float64
}
