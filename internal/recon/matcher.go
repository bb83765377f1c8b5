// Package recon pairs bank-statement transactions against posted ledger
// entries using tiered confidence matching.
package recon

import (
	"fmt"
	"math"
	"time"

	"github.com/nateechai/docledger/internal/model"
)

// MatchTier expresses how confident a pairing is.
type MatchTier string

const (
	// TierExact means amount and date both agree.
	TierExact MatchTier = "exact"
	// TierLikely means the amount agrees and the date is within the window.
	TierLikely MatchTier = "likely"
	// TierPossible means the amount differs by a small delta attributable
	// to bank fees, within the date window.
	TierPossible MatchTier = "possible"
)

// Match is one bank-transaction/ledger-entry pairing.
type Match struct {
	Bank        model.BankTransaction `json:"bank"`
	Entry       model.PostedGLEntry   `json:"entry"`
	Tier        MatchTier             `json:"tier"`
	DateDelta   int                   `json:"date_delta_days"`
	AmountDelta float64               `json:"amount_delta"`
}

// Discrepancy records an amount difference on a partially reconciled pair.
type Discrepancy struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// MatchResult is the full reconciliation report.
type MatchResult struct {
	Matched       []Match                 `json:"matched"`
	UnmatchedBank []model.BankTransaction `json:"unmatched_bank"`
	UnmatchedGL   []model.PostedGLEntry   `json:"unmatched_gl"`
	Discrepancies []Discrepancy           `json:"discrepancies"`
}

// Config holds matching thresholds.
type Config struct {
	// AmountEpsilon is the currency-rounding tolerance for an amount to
	// count as equal.
	AmountEpsilon float64
	// FeeAllowance is the largest amount difference attributable to bank
	// fees for a possible match.
	FeeAllowance float64
	// DateWindowDays bounds how far apart, in calendar days, the dates of a
	// likely or possible match may be.
	DateWindowDays int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		AmountEpsilon:  0.01,
		FeeAllowance:   5.00,
		DateWindowDays: 3,
	}
}

// Matcher performs greedy bipartite assignment between bank transactions and
// ledger entries, highest confidence tier first. Each side is matched at
// most once. Within a tier, ties break deterministically: nearest date, then
// smallest amount delta, then ledger input order.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a matcher with the given thresholds.
func NewMatcher(cfg Config) *Matcher {
	if cfg.AmountEpsilon <= 0 {
		cfg.AmountEpsilon = DefaultConfig().AmountEpsilon
	}
	if cfg.FeeAllowance <= 0 {
		cfg.FeeAllowance = DefaultConfig().FeeAllowance
	}
	if cfg.DateWindowDays <= 0 {
		cfg.DateWindowDays = DefaultConfig().DateWindowDays
	}
	return &Matcher{cfg: cfg}
}

// Match reconciles bank transactions against posted ledger entries.
func (m *Matcher) Match(bank []model.BankTransaction, entries []model.PostedGLEntry) *MatchResult {
	result := &MatchResult{}

	bankUsed := make([]bool, len(bank))
	entryUsed := make([]bool, len(entries))

	for _, tier := range []MatchTier{TierExact, TierLikely, TierPossible} {
		for bi := range bank {
			if bankUsed[bi] {
				continue
			}

			best := -1
			bestDateDelta := 0
			bestAmountDelta := 0.0

			for ei := range entries {
				if entryUsed[ei] {
					continue
				}

				dateDelta, amountDelta, ok := m.qualifies(tier, &bank[bi], &entries[ei])
				if !ok {
					continue
				}

				if best < 0 ||
					dateDelta < bestDateDelta ||
					(dateDelta == bestDateDelta && amountDelta < bestAmountDelta) {
					best = ei
					bestDateDelta = dateDelta
					bestAmountDelta = amountDelta
				}
			}

			if best < 0 {
				continue
			}

			bankUsed[bi] = true
			entryUsed[best] = true
			result.Matched = append(result.Matched, Match{
				Bank:        bank[bi],
				Entry:       entries[best],
				Tier:        tier,
				DateDelta:   bestDateDelta,
				AmountDelta: bestAmountDelta,
			})

			if tier == TierPossible {
				result.Discrepancies = append(result.Discrepancies, Discrepancy{
					Type:   "bank_fee",
					Amount: bestAmountDelta,
					Description: fmt.Sprintf("bank %.2f vs ledger %.2f for %s, difference %.2f likely a bank fee",
						bank[bi].Amount, entries[best].Amount, bank[bi].Description, bestAmountDelta),
				})
			}
		}
	}

	for bi := range bank {
		if !bankUsed[bi] {
			result.UnmatchedBank = append(result.UnmatchedBank, bank[bi])
		}
	}
	for ei := range entries {
		if !entryUsed[ei] {
			result.UnmatchedGL = append(result.UnmatchedGL, entries[ei])
		}
	}

	return result
}

// qualifies reports whether the pair satisfies the tier's constraints, along
// with the date distance in calendar days and the absolute amount delta.
func (m *Matcher) qualifies(tier MatchTier, bank *model.BankTransaction, entry *model.PostedGLEntry) (int, float64, bool) {
	dateDelta := calendarDaysApart(bank.Date, entry.Date)
	amountDelta := math.Abs(bank.Amount - entry.Amount)

	switch tier {
	case TierExact:
		return dateDelta, amountDelta, amountDelta <= m.cfg.AmountEpsilon && dateDelta == 0
	case TierLikely:
		return dateDelta, amountDelta, amountDelta <= m.cfg.AmountEpsilon && dateDelta <= m.cfg.DateWindowDays
	case TierPossible:
		return dateDelta, amountDelta, amountDelta > m.cfg.AmountEpsilon &&
			amountDelta <= m.cfg.FeeAllowance &&
			dateDelta <= m.cfg.DateWindowDays
	default:
		return dateDelta, amountDelta, false
	}
}

func calendarDaysApart(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
