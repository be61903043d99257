package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/b3erp/backend/src/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAddStatementIndexesTransactions(t *testing.T) {
	s := New()
	stmt := &models.BankStatement{
		ID:        "stmt-1",
		AccountID: "acct-1",
		Transactions: []*models.BankTransaction{
			{ID: "txn-1", StatementID: "stmt-1", TransactionDate: day(5)},
			{ID: "txn-2", StatementID: "stmt-1", TransactionDate: day(6)},
		},
	}
	s.AddStatement(stmt)

	require.NotNil(t, s.GetStatement("stmt-1"))
	assert.Equal(t, "txn-2", s.GetBankTransaction("txn-2").ID)
	assert.Nil(t, s.GetBankTransaction("missing"))
}

func TestBankTransactionsInPeriod(t *testing.T) {
	s := New()
	s.AddStatement(&models.BankStatement{
		ID:        "stmt-1",
		AccountID: "acct-1",
		Transactions: []*models.BankTransaction{
			{ID: "before", TransactionDate: day(1)},
			{ID: "on-start", TransactionDate: day(10)},
			{ID: "inside", TransactionDate: day(15)},
			{ID: "on-end", TransactionDate: day(20)},
			{ID: "after", TransactionDate: day(25)},
		},
	})
	s.AddStatement(&models.BankStatement{
		ID:        "stmt-2",
		AccountID: "acct-2",
		Transactions: []*models.BankTransaction{
			{ID: "other-account", TransactionDate: day(15)},
		},
	})

	got := s.BankTransactionsInPeriod("acct-1", day(10), day(20))
	require.Len(t, got, 3)
	// Window bounds are inclusive and results come back date-ordered.
	assert.Equal(t, "on-start", got[0].ID)
	assert.Equal(t, "inside", got[1].ID)
	assert.Equal(t, "on-end", got[2].ID)
}

func TestBookTransactionsInPeriodExcludesVoid(t *testing.T) {
	s := New()
	s.AddBookTransactions([]*models.BookTransaction{
		{ID: "ok", AccountID: "acct-1", Date: day(12), Status: models.BookStatusPending, Amount: decimal.NewFromInt(10)},
		{ID: "void", AccountID: "acct-1", Date: day(12), Status: models.BookStatusVoid, Amount: decimal.NewFromInt(10)},
		{ID: "cleared", AccountID: "acct-1", Date: day(13), Status: models.BookStatusCleared, Amount: decimal.NewFromInt(10)},
		{ID: "outside", AccountID: "acct-1", Date: day(28), Status: models.BookStatusPending, Amount: decimal.NewFromInt(10)},
	})

	got := s.BookTransactionsInPeriod("acct-1", day(10), day(20))
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0].ID)
	assert.Equal(t, "cleared", got[1].ID)
}

func TestActiveRulesSortedByPriority(t *testing.T) {
	s := New()
	s.AddRule(&models.MatchingRule{ID: "r3", Name: "third", Priority: 3, IsActive: true})
	s.AddRule(&models.MatchingRule{ID: "r1", Name: "first", Priority: 1, IsActive: true})
	s.AddRule(&models.MatchingRule{ID: "r2", Name: "inactive", Priority: 2, IsActive: false})

	got := s.ActiveRules()
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r3", got[1].ID)
}

func TestReconciliationsByAccountOrdered(t *testing.T) {
	s := New()
	s.PutReconciliation(&models.Reconciliation{ID: "rec-2", AccountID: "acct-1", CreatedAt: day(20)})
	s.PutReconciliation(&models.Reconciliation{ID: "rec-1", AccountID: "acct-1", CreatedAt: day(10)})
	s.PutReconciliation(&models.Reconciliation{ID: "rec-other", AccountID: "acct-2", CreatedAt: day(15)})

	got := s.ReconciliationsByAccount("acct-1")
	require.Len(t, got, 2)
	assert.Equal(t, "rec-1", got[0].ID)
	assert.Equal(t, "rec-2", got[1].ID)
}
