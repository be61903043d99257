package services

import (
	"github.com/google/uuid"
	"github.com/username/b3erp/backend/src/models"
)

// DefaultMatchingRules returns the rule set seeded at service initialization.
// Rules are configuration and are never mutated by matching. The third rule
// ships inactive; it is a looser template accounts with noisy references can
// switch on.
func DefaultMatchingRules() []*models.MatchingRule {
	return []*models.MatchingRule{
		{
			ID:            uuid.NewString(),
			Name:          "Exact Amount and Reference",
			Description:   "Same amount and reference number, dated within a week",
			Priority:      1,
			IsActive:      true,
			MinConfidence: 90,
			Conditions: []models.MatchingCondition{
				{Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 45},
				{Field: models.FieldReference, Operator: models.OperatorExact, Weight: 30},
				{Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 7, Weight: 10},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          "Cheque Number Match",
			Description:   "Same cheque number and amount, dated within a week",
			Priority:      2,
			IsActive:      true,
			MinConfidence: 85,
			Conditions: []models.MatchingCondition{
				{Field: models.FieldCheque, Operator: models.OperatorExact, Weight: 45},
				{Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 25},
				{Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 7, Weight: 10},
			},
		},
		{
			ID:            uuid.NewString(),
			Name:          "Fuzzy Amount and Description",
			Description:   "Amount within tolerance plus counterparty named in the statement line",
			Priority:      3,
			IsActive:      false,
			MinConfidence: 60,
			Conditions: []models.MatchingCondition{
				{Field: models.FieldAmount, Operator: models.OperatorRange, Tolerance: 100, Weight: 40},
				{Field: models.FieldReference, Operator: models.OperatorFuzzy, Weight: 20},
				{Field: models.FieldDescription, Operator: models.OperatorContains, Weight: 25},
				{Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 3, Weight: 15},
			},
		},
	}
}
