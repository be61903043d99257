package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the workflow state of a reconciliation.
// Transitions are strictly forward: in_progress -> completed -> approved.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "in_progress"
	ReconciliationCompleted  ReconciliationStatus = "completed"
	ReconciliationApproved   ReconciliationStatus = "approved"
)

// MatchType records whether a pair was committed by the engine or a reviewer.
type MatchType string

const (
	MatchTypeAuto   MatchType = "auto"
	MatchTypeManual MatchType = "manual"
)

// MatchedPair is the immutable record of one committed pairing. Confidence is
// the engine score at commit time for auto matches and fixed at 100 for
// manual matches.
type MatchedPair struct {
	BankTransactionID string    `json:"bank_transaction_id"`
	BookTransactionID string    `json:"book_transaction_id"`
	MatchType         MatchType `json:"match_type"`
	Confidence        int       `json:"confidence"`
	MatchedAt         time.Time `json:"matched_at"`
	Notes             string    `json:"notes,omitempty"`
}

// Reconciliation is the aggregate root for one account and period. A bank or
// book transaction id appears in at most one MatchedPair, and every
// transaction is in exactly one of the matched pairs or the unmatched working
// set. Difference is recomputed from the unmatched sets after every mutation.
type Reconciliation struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	PeriodStart   time.Time          `json:"period_start"`
	PeriodEnd     time.Time          `json:"period_end"`
	BankBalance   decimal.Decimal    `json:"bank_balance"`
	BookBalance   decimal.Decimal    `json:"book_balance"`
	Difference    decimal.Decimal    `json:"difference"`
	UnmatchedBank []*BankTransaction `json:"unmatched_bank"`
	UnmatchedBook []*BookTransaction `json:"unmatched_book"`
	MatchedPairs  []MatchedPair      `json:"matched_pairs"`

	TotalBankTransactions int `json:"total_bank_transactions"`
	TotalBookTransactions int `json:"total_book_transactions"`
	AutoMatchedCount      int `json:"auto_matched_count"`
	ManualMatchedCount    int `json:"manual_matched_count"`

	Status      ReconciliationStatus `json:"status"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedBy string               `json:"completed_by,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	ApprovedBy  string               `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time           `json:"approved_at,omitempty"`
}

// MatchedCount returns the number of committed pairs.
func (r *Reconciliation) MatchedCount() int {
	return len(r.MatchedPairs)
}

// SuggestedMatch is one ranked candidate for a manual match, with
// human-readable reasons computed separately from the weighted score.
type SuggestedMatch struct {
	BookTransaction *BookTransaction `json:"book_transaction"`
	Confidence      int              `json:"confidence"`
	Reasons         []string         `json:"reasons"`
}

// ReconciliationSummary is a read-only rollup over one account's statements,
// transactions and reconciliations.
type ReconciliationSummary struct {
	AccountID            string               `json:"account_id"`
	StatementCount       int                  `json:"statement_count"`
	BankTransactionCount int                  `json:"bank_transaction_count"`
	MatchedBankCount     int                  `json:"matched_bank_count"`
	UnmatchedBankCount   int                  `json:"unmatched_bank_count"`
	PendingBookCount     int                  `json:"pending_book_count"`
	ReconciledBookCount  int                  `json:"reconciled_book_count"`
	LastReconciliationID string               `json:"last_reconciliation_id,omitempty"`
	LastStatus           ReconciliationStatus `json:"last_status,omitempty"`
	LastReconciledAt     *time.Time           `json:"last_reconciled_at,omitempty"`
}

// OutstandingItems groups the transactions still unreconciled for an account
// at query time: book entries the bank has not seen yet, and bank lines the
// books have no counterpart for.
type OutstandingItems struct {
	AccountID           string             `json:"account_id"`
	UnpresentedCheques  []*BookTransaction `json:"unpresented_cheques"`
	DepositsInTransit   []*BookTransaction `json:"deposits_in_transit"`
	BankCharges         []*BankTransaction `json:"bank_charges"`
	UnidentifiedCredits []*BankTransaction `json:"unidentified_credits"`
	TotalOutstanding    decimal.Decimal    `json:"total_outstanding"`
}
