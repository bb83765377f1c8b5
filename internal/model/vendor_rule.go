package model

import "time"

// VendorRuleSource indicates how a vendor rule was created.
type VendorRuleSource string

const (
	// RuleSourceLearned indicates the rule was learned from a reviewer action.
	RuleSourceLearned VendorRuleSource = "LEARNED"
	// RuleSourceSeed indicates the rule came from configuration seed data.
	RuleSourceSeed VendorRuleSource = "SEED"
)

// VATTreatment describes how input VAT for a vendor is handled.
type VATTreatment string

const (
	// VATClaimable means input VAT is claimed against output VAT.
	VATClaimable VATTreatment = "claimable"
	// VATNonClaimable means input VAT is capitalized into cost.
	VATNonClaimable VATTreatment = "non_claimable"
)

// VendorRule maps a counterparty name keyword to a default ledger account
// and tax treatment. Rules are created by an explicit reviewer action or by
// seed data, consulted read-only by the classifier, and never auto-deleted.
type VendorRule struct {
	LastUpdated  time.Time
	Keyword      string
	AccountCode  string
	AccountName  string
	VATTreatment VATTreatment
	ClientID     string
	Source       VendorRuleSource
	UseCount     int
}
