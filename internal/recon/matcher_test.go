package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateechai/docledger/internal/model"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2024, 1, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func bankTxn(id string, d time.Time, amount float64) model.BankTransaction {
	return model.BankTransaction{
		ID:          id,
		Date:        d,
		Amount:      amount,
		Description: "PAYMENT " + id,
		AccountID:   "acct-1",
	}
}

func glEntry(docID string, d time.Time, amount float64) model.PostedGLEntry {
	return model.PostedGLEntry{
		DocumentID:  docID,
		Date:        d,
		Amount:      amount,
		AccountCode: model.ClearingAccountCode,
		Side:        model.Credit,
	}
}

func TestMatchExact(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 1000.00)},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, TierExact, result.Matched[0].Tier)
	assert.Zero(t, result.Matched[0].DateDelta)
	assert.Empty(t, result.UnmatchedBank)
	assert.Empty(t, result.UnmatchedGL)
	assert.Empty(t, result.Discrepancies)
}

func TestMatchLikelyWithinDateWindow(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(8), 1000.00)},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, TierLikely, result.Matched[0].Tier)
	assert.Equal(t, 3, result.Matched[0].DateDelta)
}

func TestMatchOutsideDateWindowUnmatched(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(10), 1000.00)},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	assert.Empty(t, result.Matched)
	assert.Len(t, result.UnmatchedBank, 1)
	assert.Len(t, result.UnmatchedGL, 1)
}

func TestMatchPossibleEmitsBankFeeDiscrepancy(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 998.50)},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, TierPossible, result.Matched[0].Tier)
	assert.InDelta(t, 1.50, result.Matched[0].AmountDelta, 0.001)

	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "bank_fee", result.Discrepancies[0].Type)
	assert.InDelta(t, 1.50, result.Discrepancies[0].Amount, 0.001)
}

func TestMatchFeeAllowanceBound(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	// 6.00 over the 5.00 allowance stays unmatched.
	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 994.00)},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	assert.Empty(t, result.Matched)
	assert.Len(t, result.UnmatchedBank, 1)
}

func TestMatchPrefersExactOverLikely(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 1000.00)},
		[]model.PostedGLEntry{
			glEntry("doc-near", day(7), 1000.00),
			glEntry("doc-exact", day(5), 1000.00),
		},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, TierExact, result.Matched[0].Tier)
	assert.Equal(t, "doc-exact", result.Matched[0].Entry.DocumentID)
	require.Len(t, result.UnmatchedGL, 1)
	assert.Equal(t, "doc-near", result.UnmatchedGL[0].DocumentID)
}

func TestMatchTieBreakNearestDate(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 1000.00)},
		[]model.PostedGLEntry{
			glEntry("doc-far", day(8), 1000.00),
			glEntry("doc-close", day(6), 1000.00),
		},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "doc-close", result.Matched[0].Entry.DocumentID)
}

func TestMatchTieBreakSmallestAmountDelta(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 1000.00)},
		[]model.PostedGLEntry{
			glEntry("doc-off-by-3", day(6), 1003.00),
			glEntry("doc-off-by-1", day(6), 1001.00),
		},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "doc-off-by-1", result.Matched[0].Entry.DocumentID)
}

func TestMatchTieBreakInputOrder(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	// Identical candidates: the first ledger entry in input order wins.
	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", day(5), 1000.00)},
		[]model.PostedGLEntry{
			glEntry("doc-first", day(5), 1000.00),
			glEntry("doc-second", day(5), 1000.00),
		},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "doc-first", result.Matched[0].Entry.DocumentID)
}

func TestMatchEachSideMatchedOnce(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(
		[]model.BankTransaction{
			bankTxn("b1", day(5), 1000.00),
			bankTxn("b2", day(5), 1000.00),
		},
		[]model.PostedGLEntry{glEntry("doc-1", day(5), 1000.00)},
	)

	require.Len(t, result.Matched, 1)
	require.Len(t, result.UnmatchedBank, 1)
	assert.Equal(t, "b2", result.UnmatchedBank[0].ID)
}

func TestMatchCalendarDayDistance(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	// 23:00 vs 01:00 next day is one calendar day apart, not zero.
	late := time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)
	early := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC)

	result := matcher.Match(
		[]model.BankTransaction{bankTxn("b1", late, 1000.00)},
		[]model.PostedGLEntry{glEntry("doc-1", early, 1000.00)},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, TierLikely, result.Matched[0].Tier)
	assert.Equal(t, 1, result.Matched[0].DateDelta)
}

func TestMatchEmptyInputs(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	result := matcher.Match(nil, nil)
	assert.Empty(t, result.Matched)
	assert.Empty(t, result.UnmatchedBank)
	assert.Empty(t, result.UnmatchedGL)
}
