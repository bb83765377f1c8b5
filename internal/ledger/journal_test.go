package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/model"
)

func TestBuildJournalClaimableVAT(t *testing.T) {
	doc := &model.ExtractedDocument{
		Subtotal:     floatPtr(1000),
		VATAmount:    floatPtr(70),
		GrandTotal:   floatPtr(1070),
		VATClaimable: true,
	}

	entry, err := BuildJournal(doc, nil)
	require.NoError(t, err)
	require.Len(t, entry, 3)
	assert.True(t, entry.Balanced())

	assert.Equal(t, model.Debit, entry[0].Side)
	assert.InDelta(t, 1000.0, entry[0].Amount, 0.001)

	assert.Equal(t, model.Debit, entry[1].Side)
	assert.InDelta(t, 70.0, entry[1].Amount, 0.001)

	assert.Equal(t, model.ClearingAccountCode, entry[2].AccountCode)
	assert.Equal(t, model.Credit, entry[2].Side)
	assert.InDelta(t, 1070.0, entry[2].Amount, 0.001)
}

func TestBuildJournalNonClaimableVATCapitalized(t *testing.T) {
	doc := &model.ExtractedDocument{
		Subtotal:     floatPtr(1000),
		VATAmount:    floatPtr(70),
		GrandTotal:   floatPtr(1070),
		VATClaimable: false,
	}

	entry, err := BuildJournal(doc, nil)
	require.NoError(t, err)
	require.Len(t, entry, 2)
	assert.True(t, entry.Balanced())

	// VAT folded into the expense line, no input VAT line.
	assert.InDelta(t, 1070.0, entry[0].Amount, 0.001)
	assert.Equal(t, model.ClearingAccountCode, entry[1].AccountCode)
}

func TestBuildJournalWithWithholding(t *testing.T) {
	doc := &model.ExtractedDocument{
		Subtotal:     floatPtr(1000),
		VATAmount:    floatPtr(70),
		GrandTotal:   floatPtr(1070),
		VATClaimable: true,
		WHTFlag:      true,
		WHTRate:      3,
	}

	entry, err := BuildJournal(doc, nil)
	require.NoError(t, err)
	require.Len(t, entry, 4)
	assert.True(t, entry.Balanced())

	whtIdx := entry.FindAccount(model.WHTPayableAccountCode)
	require.GreaterOrEqual(t, whtIdx, 0)
	assert.Equal(t, model.Credit, entry[whtIdx].Side)
	assert.InDelta(t, 30.0, entry[whtIdx].Amount, 0.001)

	clearingIdx := entry.FindAccount(model.ClearingAccountCode)
	require.GreaterOrEqual(t, clearingIdx, 0)
	assert.InDelta(t, 1040.0, entry[clearingIdx].Amount, 0.001)
}

func TestBuildJournalUsesVendorRule(t *testing.T) {
	doc := &model.ExtractedDocument{
		Subtotal:     floatPtr(500),
		VATAmount:    floatPtr(35),
		GrandTotal:   floatPtr(535),
		VATClaimable: true,
	}
	rule := &model.VendorRule{
		Keyword:      "true internet",
		AccountCode:  "5220-00",
		AccountName:  "Internet & Communications",
		VATTreatment: model.VATClaimable,
	}

	entry, err := BuildJournal(doc, rule)
	require.NoError(t, err)
	assert.Equal(t, "5220-00", entry[0].AccountCode)
	assert.Equal(t, "Internet & Communications", entry[0].AccountName)
}

func TestBuildJournalVendorRuleOverridesVATTreatment(t *testing.T) {
	doc := &model.ExtractedDocument{
		Subtotal:     floatPtr(500),
		VATAmount:    floatPtr(35),
		GrandTotal:   floatPtr(535),
		VATClaimable: true,
	}
	rule := &model.VendorRule{
		Keyword:      "entertainment",
		AccountCode:  "5350-00",
		AccountName:  "Entertainment",
		VATTreatment: model.VATNonClaimable,
	}

	entry, err := BuildJournal(doc, rule)
	require.NoError(t, err)
	require.Len(t, entry, 2)
	assert.InDelta(t, 535.0, entry[0].Amount, 0.001)
}

func TestBuildJournalValidation(t *testing.T) {
	tests := []struct {
		doc  *model.ExtractedDocument
		name string
	}{
		{name: "nil document", doc: nil},
		{name: "missing subtotal", doc: &model.ExtractedDocument{GrandTotal: floatPtr(1070)}},
		{name: "missing grand total", doc: &model.ExtractedDocument{Subtotal: floatPtr(1000)}},
		{
			name: "negative subtotal",
			doc:  &model.ExtractedDocument{Subtotal: floatPtr(-1), GrandTotal: floatPtr(1070)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildJournal(tt.doc, nil)
			var validationErr *common.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestPostedEntries(t *testing.T) {
	issueDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rec := &model.DocumentRecord{
		ID: "doc-9",
		Extracted: &model.ExtractedDocument{
			IssueDate:   &issueDate,
			Description: "internet bill",
			Journal: model.JournalEntry{
				{AccountCode: "5220-00", AccountName: "Internet", Side: model.Debit, Amount: 535},
				{AccountCode: model.ClearingAccountCode, AccountName: "AP Clearing", Side: model.Credit, Amount: 535},
			},
		},
	}

	entries := PostedEntries(rec)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "doc-9", entry.DocumentID)
		assert.Equal(t, issueDate, entry.Date)
		assert.Equal(t, "internet bill", entry.Description)
	}
	assert.Equal(t, model.Debit, entries[0].Side)
	assert.Equal(t, model.Credit, entries[1].Side)
}
