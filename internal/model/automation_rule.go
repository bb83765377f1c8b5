package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Condition operators supported by automation rules.
const (
	OpEquals      = "eq"
	OpNotEquals   = "neq"
	OpGreaterThan = "gt"
	OpAtLeast     = "gte"
	OpLessThan    = "lt"
	OpAtMost      = "lte"
	OpContains    = "contains"
)

// RuleCondition is a single declarative (field, operator, value) check.
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// AutomationRule is a declarative rule evaluated against every processed
// document. Rules are advisory: matches increment the rule's trigger counter
// for telemetry, while the auto-approval config remains the single gating
// mechanism.
type AutomationRule struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string
	Conditions   []RuleCondition
	ID           int64
	TriggerCount int
	Enabled      bool
}

// Matches reports whether every condition holds for the document. All
// conditions are evaluated (AND semantics); a condition referencing a field
// the extraction did not produce evaluates to false. A rule with no
// conditions never matches.
func (r *AutomationRule) Matches(doc *ExtractedDocument) bool {
	if !r.Enabled || doc == nil || len(r.Conditions) == 0 {
		return false
	}

	matched := true
	for _, cond := range r.Conditions {
		if !cond.matches(doc) {
			matched = false
		}
	}
	return matched
}

func (c RuleCondition) matches(doc *ExtractedDocument) bool {
	switch c.Field {
	case "grand_total":
		return compareNumeric(doc.GrandTotal, c.Operator, c.Value)
	case "subtotal":
		return compareNumeric(doc.Subtotal, c.Operator, c.Value)
	case "vat_amount":
		return compareNumeric(doc.VATAmount, c.Operator, c.Value)
	case "confidence":
		return compareNumeric(doc.Confidence, c.Operator, c.Value)
	case "vendor_name":
		return compareString(doc.VendorName, c.Operator, c.Value)
	case "doc_type":
		return compareString(doc.DocType, c.Operator, c.Value)
	case "description":
		return compareString(doc.Description, c.Operator, c.Value)
	case "is_full_tax_invoice":
		return compareBool(doc.IsFullTaxInvoice, c.Operator, c.Value)
	case "wht_flag":
		return compareBool(doc.WHTFlag, c.Operator, c.Value)
	default:
		return false
	}
}

func compareNumeric(field *float64, operator, value string) bool {
	if field == nil {
		return false
	}
	want, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}

	switch operator {
	case OpEquals:
		return *field == want
	case OpNotEquals:
		return *field != want
	case OpGreaterThan:
		return *field > want
	case OpAtLeast:
		return *field >= want
	case OpLessThan:
		return *field < want
	case OpAtMost:
		return *field <= want
	default:
		return false
	}
}

func compareString(field, operator, value string) bool {
	switch operator {
	case OpEquals:
		return strings.EqualFold(field, value)
	case OpNotEquals:
		return !strings.EqualFold(field, value)
	case OpContains:
		return strings.Contains(strings.ToLower(field), strings.ToLower(value))
	default:
		return false
	}
}

func compareBool(field bool, operator, value string) bool {
	want, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}

	switch operator {
	case OpEquals:
		return field == want
	case OpNotEquals:
		return field != want
	default:
		return false
	}
}

// Validate ensures the rule has valid data.
func (r *AutomationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("at least one condition is required")
	}

	validOps := map[string]bool{
		OpEquals: true, OpNotEquals: true,
		OpGreaterThan: true, OpAtLeast: true,
		OpLessThan: true, OpAtMost: true,
		OpContains: true,
	}
	for i, cond := range r.Conditions {
		if cond.Field == "" {
			return fmt.Errorf("condition %d: field is required", i)
		}
		if !validOps[cond.Operator] {
			return fmt.Errorf("condition %d: unknown operator %q", i, cond.Operator)
		}
	}

	return nil
}
