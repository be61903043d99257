// Package store holds the in-memory collections the reconciliation service
// works against: imported bank statements and their lines, the book ledger
// feed, matching rules and reconciliation aggregates. It replaces what the
// wider ERP keeps in its storage engine; persistence is owned by the caller.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/username/b3erp/backend/src/models"
)

// Store is an id-keyed repository guarded by a single RWMutex. It is injected
// into the service rather than held as package state so tests can build
// isolated fixtures.
type Store struct {
	mu              sync.RWMutex
	statements      map[string]*models.BankStatement
	bankTxns        map[string]*models.BankTransaction
	bookTxns        map[string]*models.BookTransaction
	rules           map[string]*models.MatchingRule
	reconciliations map[string]*models.Reconciliation
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		statements:      make(map[string]*models.BankStatement),
		bankTxns:        make(map[string]*models.BankTransaction),
		bookTxns:        make(map[string]*models.BookTransaction),
		rules:           make(map[string]*models.MatchingRule),
		reconciliations: make(map[string]*models.Reconciliation),
	}
}

// AddStatement stores a statement and indexes its transactions by id.
func (s *Store) AddStatement(stmt *models.BankStatement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements[stmt.ID] = stmt
	for _, txn := range stmt.Transactions {
		s.bankTxns[txn.ID] = txn
	}
}

// GetStatement returns the statement with the given id, or nil.
func (s *Store) GetStatement(id string) *models.BankStatement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statements[id]
}

// StatementsByAccount returns all statements imported for an account.
func (s *Store) StatementsByAccount(accountID string) []*models.BankStatement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BankStatement
	for _, stmt := range s.statements {
		if stmt.AccountID == accountID {
			out = append(out, stmt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StatementDate.Before(out[j].StatementDate)
	})
	return out
}

// GetBankTransaction returns the bank transaction with the given id, or nil.
func (s *Store) GetBankTransaction(id string) *models.BankTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bankTxns[id]
}

// BankTransactionsInPeriod returns an account's statement lines whose
// transaction date falls inside [start, end], ordered by date.
func (s *Store) BankTransactionsInPeriod(accountID string, start, end time.Time) []*models.BankTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BankTransaction
	for _, stmt := range s.statements {
		if stmt.AccountID != accountID {
			continue
		}
		for _, txn := range stmt.Transactions {
			if inWindow(txn.TransactionDate, start, end) {
				out = append(out, txn)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out
}

// AddBookTransactions is the integration point for the book-ledger feed.
func (s *Store) AddBookTransactions(txns []*models.BookTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range txns {
		s.bookTxns[txn.ID] = txn
	}
}

// GetBookTransaction returns the book transaction with the given id, or nil.
func (s *Store) GetBookTransaction(id string) *models.BookTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookTxns[id]
}

// BookTransactionsInPeriod returns an account's ledger entries dated inside
// [start, end], ordered by date. Void entries are excluded; the ledger feed
// is authoritative for everything else.
func (s *Store) BookTransactionsInPeriod(accountID string, start, end time.Time) []*models.BookTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BookTransaction
	for _, txn := range s.bookTxns {
		if txn.AccountID != accountID || txn.Status == models.BookStatusVoid {
			continue
		}
		if inWindow(txn.Date, start, end) {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// BookTransactionsByAccount returns all non-void ledger entries for an
// account, ordered by date.
func (s *Store) BookTransactionsByAccount(accountID string) []*models.BookTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BookTransaction
	for _, txn := range s.bookTxns {
		if txn.AccountID == accountID && txn.Status != models.BookStatusVoid {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// AddRule stores a matching rule.
func (s *Store) AddRule(rule *models.MatchingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = rule
}

// ActiveRules returns the active rules ordered by ascending priority.
func (s *Store) ActiveRules() []*models.MatchingRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.MatchingRule
	for _, rule := range s.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// PutReconciliation stores or replaces a reconciliation aggregate.
func (s *Store) PutReconciliation(r *models.Reconciliation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciliations[r.ID] = r
}

// GetReconciliation returns the reconciliation with the given id, or nil.
func (s *Store) GetReconciliation(id string) *models.Reconciliation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconciliations[id]
}

// ReconciliationsByAccount returns an account's reconciliations ordered by
// creation time.
func (s *Store) ReconciliationsByAccount(accountID string) []*models.Reconciliation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Reconciliation
	for _, r := range s.reconciliations {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
