package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/b3erp/backend/src/models"
)

// BankTransactionInput is one partially-populated statement line handed over
// by the ingestion collaborator. Missing fields keep their zero values; the
// import applies defaults (empty strings, zero amounts, type "other").
type BankTransactionInput struct {
	TransactionDate time.Time
	ValueDate       time.Time
	Description     string
	Reference       string
	ChequeNumber    string
	DebitAmount     decimal.Decimal
	CreditAmount    decimal.Decimal
	Balance         decimal.Decimal
	TransactionType models.BankTransactionType
}

// ImportStatementInput carries one imported statement batch.
type ImportStatementInput struct {
	AccountID      string
	AccountName    string
	StatementDate  time.Time
	Transactions   []BankTransactionInput
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	ImportedBy     string
	SourceFileName string
}

// ReconciliationService is the in-process API of the bank reconciliation
// subsystem. All calls are synchronous; operations on the same reconciliation
// id are serialized internally.
type ReconciliationService interface {
	ImportBankStatement(input ImportStatementInput) (*models.BankStatement, error)
	StartReconciliation(accountID string, periodStart, periodEnd time.Time, createdBy string) (*models.Reconciliation, error)
	RunAutoMatching(reconciliationID string) (*models.Reconciliation, error)
	ManualMatch(reconciliationID, bankTxnID, bookTxnID, notes string) (*models.Reconciliation, error)
	Unmatch(reconciliationID, bankTxnID string) (*models.Reconciliation, error)
	CompleteReconciliation(reconciliationID, completedBy string) (*models.Reconciliation, error)
	ApproveReconciliation(reconciliationID, approvedBy string) (*models.Reconciliation, error)
	GetReconciliation(reconciliationID string) (*models.Reconciliation, error)
	GetSuggestedMatches(reconciliationID, bankTxnID string) ([]models.SuggestedMatch, error)
	GetReconciliationSummary(accountID string) (*models.ReconciliationSummary, error)
	GetOutstandingItems(accountID string) (*models.OutstandingItems, error)
}
