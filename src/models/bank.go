package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransactionType tags a statement line with the business meaning the
// import assigned to it. Unknown lines default to TypeOther.
type BankTransactionType string

const (
	TypeDeposit    BankTransactionType = "deposit"
	TypeWithdrawal BankTransactionType = "withdrawal"
	TypeCheque     BankTransactionType = "cheque"
	TypeTransfer   BankTransactionType = "transfer"
	TypeCharge     BankTransactionType = "charge"
	TypeInterest   BankTransactionType = "interest"
	TypeOther      BankTransactionType = "other"
)

// MatchStatus is the match lifecycle of a single bank statement line.
type MatchStatus string

const (
	MatchStatusUnmatched MatchStatus = "unmatched"
	MatchStatusMatched   MatchStatus = "matched"
)

// BankTransaction is one line of an imported bank statement. Exactly one of
// DebitAmount/CreditAmount is non-zero. The match metadata fields are the only
// mutable part once the statement is imported.
type BankTransaction struct {
	ID                   string              `json:"id"`
	StatementID          string              `json:"statement_id"`
	TransactionDate      time.Time           `json:"transaction_date"`
	ValueDate            time.Time           `json:"value_date"`
	Description          string              `json:"description"`
	Reference            string              `json:"reference,omitempty"`
	ChequeNumber         string              `json:"cheque_number,omitempty"`
	DebitAmount          decimal.Decimal     `json:"debit_amount"`
	CreditAmount         decimal.Decimal     `json:"credit_amount"`
	Balance              decimal.Decimal     `json:"balance"`
	TransactionType      BankTransactionType `json:"transaction_type"`
	MatchStatus          MatchStatus         `json:"match_status"`
	MatchedTransactionID string              `json:"matched_transaction_id,omitempty"`
	MatchConfidence      int                 `json:"match_confidence,omitempty"`
	Notes                string              `json:"notes,omitempty"`
}

// IsDebit reports whether the line moves money out of the bank account.
func (t *BankTransaction) IsDebit() bool {
	return t.DebitAmount.IsPositive()
}

// Amount returns the non-zero side of the line as a positive value.
func (t *BankTransaction) Amount() decimal.Decimal {
	if t.IsDebit() {
		return t.DebitAmount
	}
	return t.CreditAmount
}

// NetAmount returns credit minus debit, the line's effect on the bank balance.
func (t *BankTransaction) NetAmount() decimal.Decimal {
	return t.CreditAmount.Sub(t.DebitAmount)
}

// BankStatement is a batch of bank transactions imported for one account on
// one date. Immutable after import except for its transactions' match metadata.
type BankStatement struct {
	ID             string             `json:"id"`
	AccountID      string             `json:"account_id"`
	AccountName    string             `json:"account_name"`
	StatementDate  time.Time          `json:"statement_date"`
	OpeningBalance decimal.Decimal    `json:"opening_balance"`
	ClosingBalance decimal.Decimal    `json:"closing_balance"`
	Transactions   []*BankTransaction `json:"transactions"`
	ImportedBy     string             `json:"imported_by"`
	ImportedAt     time.Time          `json:"imported_at"`
	SourceFileName string             `json:"source_file_name,omitempty"`
}
