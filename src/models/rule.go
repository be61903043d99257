package models

// MatchField selects which transaction attribute a condition compares.
type MatchField string

const (
	FieldAmount      MatchField = "amount"
	FieldDate        MatchField = "date"
	FieldReference   MatchField = "reference"
	FieldCheque      MatchField = "cheque"
	FieldDescription MatchField = "description"
)

// MatchOperator selects how a condition compares its field.
type MatchOperator string

const (
	OperatorExact    MatchOperator = "exact"
	OperatorFuzzy    MatchOperator = "fuzzy"
	OperatorRange    MatchOperator = "range"
	OperatorContains MatchOperator = "contains"
)

// MatchingCondition binds one field to an operator, an optional tolerance
// (amount units or days, depending on the field) and a weight contributing
// to the total confidence.
type MatchingCondition struct {
	Field     MatchField    `json:"field"`
	Operator  MatchOperator `json:"operator"`
	Tolerance float64       `json:"tolerance,omitempty"`
	Weight    float64       `json:"weight"`
}

// MatchingRule is a named, prioritized scoring template. Rules are
// configuration: created at service initialization and never mutated by
// matching. Priority orders the active set; it does not affect scoring
// weight. MinConfidence is advisory and not consulted by the engine.
type MatchingRule struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Priority      int                 `json:"priority"`
	IsActive      bool                `json:"is_active"`
	MinConfidence int                 `json:"min_confidence"`
	Conditions    []MatchingCondition `json:"conditions"`
}
