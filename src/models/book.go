package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookTransactionStatus is the reconciliation lifecycle of a ledger entry.
// pending -> cleared when matched, cleared -> reconciled on approval,
// back to pending on unmatch. Void entries never take part in matching.
type BookTransactionStatus string

const (
	BookStatusPending    BookTransactionStatus = "pending"
	BookStatusCleared    BookTransactionStatus = "cleared"
	BookStatusReconciled BookTransactionStatus = "reconciled"
	BookStatusVoid       BookTransactionStatus = "void"
)

// BookTransaction is an internal ledger entry awaiting reconciliation against
// a bank statement. Amount is always positive; IsDebit carries the direction
// from the bank account's perspective (true = money out).
type BookTransaction struct {
	ID               string                `json:"id"`
	AccountID        string                `json:"account_id"`
	Date             time.Time             `json:"date"`
	Description      string                `json:"description"`
	Reference        string                `json:"reference,omitempty"`
	ChequeNumber     string                `json:"cheque_number,omitempty"`
	Amount           decimal.Decimal       `json:"amount"`
	IsDebit          bool                  `json:"is_debit"`
	TransactionType  string                `json:"transaction_type"`
	CounterpartyName string                `json:"counterparty_name,omitempty"`
	InvoiceNumber    string                `json:"invoice_number,omitempty"`
	Status           BookTransactionStatus `json:"status"`
}

// SignedAmount returns the entry's effect on the bank balance: negative for
// debits (payments out), positive for credits (receipts in).
func (t *BookTransaction) SignedAmount() decimal.Decimal {
	if t.IsDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
