package matching

import (
	"github.com/username/b3erp/backend/src/models"
)

// Engine scores how likely one bank statement line and one ledger entry
// describe the same real-world movement of money.
type Engine interface {
	// Score returns a confidence in [0, 100] for the pair under the given
	// rules. A confidence of 0 means the pair should not be offered at all.
	Score(bank *models.BankTransaction, book *models.BookTransaction, rules []*models.MatchingRule) int

	// Reasons returns display-only explanations for why the pair looks like
	// a match. They are computed independently of the weighted score and are
	// not guaranteed to line up with the rule that produced it.
	Reasons(bank *models.BankTransaction, book *models.BookTransaction) []string
}
