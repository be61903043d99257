package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/username/b3erp/backend/src/models"
)

var testDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func bankCredit(amount float64, date time.Time) *models.BankTransaction {
	return &models.BankTransaction{
		ID:              "bank-1",
		TransactionDate: date,
		CreditAmount:    decimal.NewFromFloat(amount),
	}
}

func bankDebit(amount float64, date time.Time) *models.BankTransaction {
	return &models.BankTransaction{
		ID:              "bank-1",
		TransactionDate: date,
		DebitAmount:     decimal.NewFromFloat(amount),
	}
}

func bookReceipt(amount float64, date time.Time) *models.BookTransaction {
	return &models.BookTransaction{
		ID:     "book-1",
		Date:   date,
		Amount: decimal.NewFromFloat(amount),
	}
}

func singleConditionRule(cond models.MatchingCondition) []*models.MatchingRule {
	return []*models.MatchingRule{{
		ID:         "rule-1",
		Name:       "test rule",
		IsActive:   true,
		Conditions: []models.MatchingCondition{cond},
	}}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal strings", "REC-001", "REC-001", 1},
		{"case insensitive equal", "Rec-001", "REC-001", 1},
		{"both empty", "", "", 1},
		{"one empty", "", "ABC", 0},
		{"partial overlap", "abc", "abd", 2.0 / 3.0},
		{"prefix", "INV-1", "INV-12", 5.0 / 6.0},
		{"symmetric", "INV-12", "INV-1", 5.0 / 6.0},
		{"no overlap", "xyz", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreDirectionGate(t *testing.T) {
	engine := NewEngine(0.01)
	rules := singleConditionRule(models.MatchingCondition{
		Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 100,
	})

	bank := bankDebit(500, testDate)
	book := bookReceipt(500, testDate) // credit from the bank's perspective

	assert.Equal(t, 0, engine.Score(bank, book, rules), "opposite directions must score 0 regardless of rules")

	book.IsDebit = true
	assert.Equal(t, 100, engine.Score(bank, book, rules))
}

func TestScoreNoRules(t *testing.T) {
	engine := NewEngine(0.01)
	assert.Equal(t, 0, engine.Score(bankCredit(100, testDate), bookReceipt(100, testDate), nil))
}

func TestScoreAmountExact(t *testing.T) {
	engine := NewEngine(0.01)
	rules := singleConditionRule(models.MatchingCondition{
		Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 50,
	})

	assert.Equal(t, 100, engine.Score(bankCredit(100, testDate), bookReceipt(100, testDate), rules))
	assert.Equal(t, 100, engine.Score(bankCredit(100.005, testDate), bookReceipt(100, testDate), rules))
	assert.Equal(t, 0, engine.Score(bankCredit(100.02, testDate), bookReceipt(100, testDate), rules))
}

func TestScoreAmountRangePartialCredit(t *testing.T) {
	engine := NewEngine(0.01)
	rules := singleConditionRule(models.MatchingCondition{
		Field: models.FieldAmount, Operator: models.OperatorRange, Tolerance: 20, Weight: 100,
	})

	// diff 10 of tolerance 20 earns half the weight.
	assert.Equal(t, 50, engine.Score(bankCredit(110, testDate), bookReceipt(100, testDate), rules))
	// outside tolerance earns nothing.
	assert.Equal(t, 0, engine.Score(bankCredit(125, testDate), bookReceipt(100, testDate), rules))
}

func TestScoreDate(t *testing.T) {
	engine := NewEngine(0.01)
	exact := singleConditionRule(models.MatchingCondition{
		Field: models.FieldDate, Operator: models.OperatorExact, Weight: 100,
	})
	rng := singleConditionRule(models.MatchingCondition{
		Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 6, Weight: 100,
	})

	sameDay := testDate.Add(5 * time.Hour)
	assert.Equal(t, 100, engine.Score(bankCredit(1, sameDay), bookReceipt(1, testDate), exact))
	assert.Equal(t, 0, engine.Score(bankCredit(1, testDate.AddDate(0, 0, 1)), bookReceipt(1, testDate), exact))

	threeDaysOff := testDate.AddDate(0, 0, 3)
	assert.Equal(t, 50, engine.Score(bankCredit(1, threeDaysOff), bookReceipt(1, testDate), rng))
	assert.Equal(t, 0, engine.Score(bankCredit(1, testDate.AddDate(0, 0, 10)), bookReceipt(1, testDate), rng))
}

func TestScoreReference(t *testing.T) {
	engine := NewEngine(0.01)
	exact := singleConditionRule(models.MatchingCondition{
		Field: models.FieldReference, Operator: models.OperatorExact, Weight: 100,
	})
	fuzzy := singleConditionRule(models.MatchingCondition{
		Field: models.FieldReference, Operator: models.OperatorFuzzy, Weight: 100,
	})

	bank := bankCredit(1, testDate)
	book := bookReceipt(1, testDate)

	bank.Reference, book.Reference = "REC-001", "REC-001"
	assert.Equal(t, 100, engine.Score(bank, book, exact))

	bank.Reference, book.Reference = "REC-001", "REC-002"
	assert.Equal(t, 0, engine.Score(bank, book, exact))
	// fuzzy gives the overlap ratio instead of nothing.
	assert.Greater(t, engine.Score(bank, book, fuzzy), 50)
	assert.Less(t, engine.Score(bank, book, fuzzy), 100)
}

func TestScoreCheque(t *testing.T) {
	engine := NewEngine(0.01)
	rules := singleConditionRule(models.MatchingCondition{
		Field: models.FieldCheque, Operator: models.OperatorExact, Weight: 100,
	})

	bank := bankDebit(1, testDate)
	book := bookReceipt(1, testDate)
	book.IsDebit = true

	bank.ChequeNumber, book.ChequeNumber = "CHQ-12345", "CHQ-12345"
	assert.Equal(t, 100, engine.Score(bank, book, rules))

	book.ChequeNumber = "CHQ-54321"
	assert.Equal(t, 0, engine.Score(bank, book, rules))
}

func TestScoreDescription(t *testing.T) {
	engine := NewEngine(0.01)
	rules := singleConditionRule(models.MatchingCondition{
		Field: models.FieldDescription, Operator: models.OperatorContains, Weight: 100,
	})

	bank := bankCredit(1, testDate)
	book := bookReceipt(1, testDate)

	bank.Description = "TRANSFER FROM ACME CORP 2024"
	book.CounterpartyName = "Acme Corp"
	assert.Equal(t, 100, engine.Score(bank, book, rules))

	book.CounterpartyName = "Globex"
	assert.Equal(t, 0, engine.Score(bank, book, rules))
}

func TestScoreOrderIndependence(t *testing.T) {
	engine := NewEngine(0.01)
	r1 := &models.MatchingRule{
		ID: "r1", Name: "first", IsActive: true,
		Conditions: []models.MatchingCondition{
			{Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 40},
			{Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 7, Weight: 20},
		},
	}
	r2 := &models.MatchingRule{
		ID: "r2", Name: "second", IsActive: true,
		Conditions: []models.MatchingCondition{
			{Field: models.FieldReference, Operator: models.OperatorFuzzy, Weight: 35},
		},
	}

	bank := bankCredit(250, testDate.AddDate(0, 0, 2))
	bank.Reference = "INV-9981"
	book := bookReceipt(250, testDate)
	book.Reference = "INV-9918"

	forward := engine.Score(bank, book, []*models.MatchingRule{r1, r2})
	reversed := engine.Score(bank, book, []*models.MatchingRule{r2, r1})
	assert.Equal(t, forward, reversed)
}

func TestScoreBounds(t *testing.T) {
	engine := NewEngine(0.01)
	rules := []*models.MatchingRule{
		{ID: "r1", Name: "mixed", IsActive: true, Conditions: []models.MatchingCondition{
			{Field: models.FieldAmount, Operator: models.OperatorExact, Weight: 45},
			{Field: models.FieldAmount, Operator: models.OperatorRange, Tolerance: 50, Weight: 20},
			{Field: models.FieldDate, Operator: models.OperatorRange, Tolerance: 7, Weight: 15},
			{Field: models.FieldReference, Operator: models.OperatorFuzzy, Weight: 10},
			{Field: models.FieldCheque, Operator: models.OperatorExact, Weight: 5},
			{Field: models.FieldDescription, Operator: models.OperatorContains, Weight: 5},
		}},
	}

	amounts := []float64{0, 1, 99.99, 100, 100.01, 150, 5000}
	offsets := []int{0, 1, 3, 7, 30}
	refs := []string{"", "REC-001", "INV-22", "xyz"}
	for _, amt := range amounts {
		for _, off := range offsets {
			for _, ref := range refs {
				bank := bankCredit(amt, testDate.AddDate(0, 0, off))
				bank.Reference = ref
				book := bookReceipt(100, testDate)
				book.Reference = "REC-001"
				score := engine.Score(bank, book, rules)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}

func TestReasons(t *testing.T) {
	engine := NewEngine(0.01)

	bank := bankCredit(500000, testDate)
	bank.Reference = "REC-001"
	book := bookReceipt(500000, testDate)
	book.Reference = "REC-001"

	reasons := engine.Reasons(bank, book)
	assert.Contains(t, reasons, "Exact amount match")
	assert.Contains(t, reasons, "Reference number matches")
	assert.Contains(t, reasons, "Same transaction date")
	assert.NotContains(t, reasons, "Cheque number matches")
}

func TestReasonsAmountWithinOnePercent(t *testing.T) {
	engine := NewEngine(0.01)

	bank := bankCredit(1005, testDate.AddDate(0, 0, 2))
	book := bookReceipt(1000, testDate)

	reasons := engine.Reasons(bank, book)
	assert.Contains(t, reasons, "Amount within 1% tolerance")
	assert.NotContains(t, reasons, "Exact amount match")
	assert.NotContains(t, reasons, "Same transaction date")
}
