package matching

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/username/b3erp/backend/src/models"
)

// matchingEngine implements the Engine interface with rule-weighted scoring.
type matchingEngine struct {
	amountTolerance float64
}

// NewEngine creates an engine. amountTolerance is the largest absolute amount
// difference still treated as an exact amount match.
func NewEngine(amountTolerance float64) Engine {
	return &matchingEngine{amountTolerance: amountTolerance}
}

// Score evaluates every condition of every supplied rule. Each condition adds
// its weight to the total; matching conditions add full or partial weight to
// the matched side. The result is round(100 * matched / total), independent of
// rule and condition order. If the debit/credit direction of the two sides
// disagrees the score is 0 regardless of rules.
func (e *matchingEngine) Score(bank *models.BankTransaction, book *models.BookTransaction, rules []*models.MatchingRule) int {
	if bank == nil || book == nil {
		return 0
	}
	if bank.IsDebit() != book.IsDebit {
		return 0
	}

	var totalWeight, matchedWeight float64
	for _, rule := range rules {
		for _, cond := range rule.Conditions {
			totalWeight += cond.Weight
			matchedWeight += e.conditionCredit(cond, bank, book)
		}
	}
	if totalWeight <= 0 {
		return 0
	}
	return int(math.Round(100 * matchedWeight / totalWeight))
}

// conditionCredit returns the portion of the condition's weight the pair
// earns, in [0, cond.Weight].
func (e *matchingEngine) conditionCredit(cond models.MatchingCondition, bank *models.BankTransaction, book *models.BookTransaction) float64 {
	switch cond.Field {
	case models.FieldAmount:
		diff := bank.Amount().Sub(book.Amount).Abs().InexactFloat64()
		switch cond.Operator {
		case models.OperatorExact:
			if diff < e.amountTolerance {
				return cond.Weight
			}
		case models.OperatorRange:
			if cond.Tolerance > 0 && diff <= cond.Tolerance {
				return cond.Weight * (1 - diff/cond.Tolerance)
			}
		}

	case models.FieldDate:
		days := dayDiff(bank.TransactionDate, book.Date)
		switch cond.Operator {
		case models.OperatorExact:
			if days == 0 {
				return cond.Weight
			}
		case models.OperatorRange:
			if cond.Tolerance > 0 && days <= cond.Tolerance {
				return cond.Weight * (1 - days/cond.Tolerance)
			}
		}

	case models.FieldReference:
		switch cond.Operator {
		case models.OperatorExact:
			if bank.Reference == book.Reference {
				return cond.Weight
			}
		case models.OperatorFuzzy:
			return cond.Weight * Similarity(bank.Reference, book.Reference)
		}

	case models.FieldCheque:
		if bank.ChequeNumber == book.ChequeNumber {
			return cond.Weight
		}

	case models.FieldDescription:
		if strings.Contains(strings.ToLower(bank.Description), strings.ToLower(book.CounterpartyName)) {
			return cond.Weight
		}
	}
	return 0
}

// Reasons builds the display strings shown next to a suggested match. These
// checks are intentionally separate from the weighted score.
func (e *matchingEngine) Reasons(bank *models.BankTransaction, book *models.BookTransaction) []string {
	var reasons []string

	diff := bank.Amount().Sub(book.Amount).Abs()
	onePercent := book.Amount.Mul(decimal.NewFromFloat(0.01))
	if diff.InexactFloat64() < 0.01 {
		reasons = append(reasons, "Exact amount match")
	} else if book.Amount.IsPositive() && diff.LessThanOrEqual(onePercent) {
		reasons = append(reasons, "Amount within 1% tolerance")
	}

	if bank.Reference != "" && bank.Reference == book.Reference {
		reasons = append(reasons, "Reference number matches")
	}
	if bank.ChequeNumber != "" && bank.ChequeNumber == book.ChequeNumber {
		reasons = append(reasons, "Cheque number matches")
	}
	if dayDiff(bank.TransactionDate, book.Date) == 0 {
		reasons = append(reasons, "Same transaction date")
	}
	return reasons
}

// Similarity is a symmetric, case-insensitive character-overlap score in
// [0, 1]: the count of the shorter string's characters present in the longer
// string, divided by the longer string's length. Equal strings score 1.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}

	shorter, longer := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	longerLen := utf8.RuneCountInString(longer)
	if longerLen == 0 {
		return 1
	}

	matches := 0
	for _, r := range shorter {
		if strings.ContainsRune(longer, r) {
			matches++
		}
	}
	return float64(matches) / float64(longerLen)
}

// dayDiff returns the whole-day distance between two timestamps, ignoring the
// time-of-day component.
func dayDiff(a, b time.Time) float64 {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return math.Abs(da.Sub(db).Hours() / 24)
}
