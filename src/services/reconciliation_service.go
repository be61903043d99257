package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/b3erp/backend/src/config"
	"github.com/username/b3erp/backend/src/logger"
	"github.com/username/b3erp/backend/src/matching"
	"github.com/username/b3erp/backend/src/models"
	"github.com/username/b3erp/backend/src/store"
)

const (
	ckSummary     = "summary_account_%s"
	ckOutstanding = "outstanding_account_%s"
)

type reconciliationServiceImpl struct {
	store        *store.Store
	engine       matching.Engine
	summaryCache *cache.Cache

	// One mutex per reconciliation id. Every mutating operation on a
	// reconciliation serializes on its mutex; operations on different
	// reconciliations run in parallel.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewReconciliationService wires the service and seeds the default matching
// rules into the store.
func NewReconciliationService(st *store.Store, engine matching.Engine, summaryCache *cache.Cache) ReconciliationService {
	for _, rule := range DefaultMatchingRules() {
		st.AddRule(rule)
	}
	return &reconciliationServiceImpl{
		store:        st,
		engine:       engine,
		summaryCache: summaryCache,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *reconciliationServiceImpl) lockFor(reconciliationID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[reconciliationID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[reconciliationID] = mu
	}
	return mu
}

func (s *reconciliationServiceImpl) ImportBankStatement(input ImportStatementInput) (*models.BankStatement, error) {
	logger.L.Info("ImportBankStatement START", "accountID", input.AccountID, "lines", len(input.Transactions))

	statementDate := input.StatementDate
	if statementDate.IsZero() {
		statementDate = time.Now().UTC()
	}

	stmt := &models.BankStatement{
		ID:             uuid.NewString(),
		AccountID:      input.AccountID,
		AccountName:    input.AccountName,
		StatementDate:  statementDate,
		OpeningBalance: input.OpeningBalance,
		ClosingBalance: input.ClosingBalance,
		ImportedBy:     input.ImportedBy,
		ImportedAt:     time.Now().UTC(),
		SourceFileName: input.SourceFileName,
	}

	net := decimal.Zero
	for _, in := range input.Transactions {
		txn := &models.BankTransaction{
			ID:              uuid.NewString(),
			StatementID:     stmt.ID,
			TransactionDate: in.TransactionDate,
			ValueDate:       in.ValueDate,
			Description:     in.Description,
			Reference:       in.Reference,
			ChequeNumber:    in.ChequeNumber,
			DebitAmount:     in.DebitAmount,
			CreditAmount:    in.CreditAmount,
			Balance:         in.Balance,
			TransactionType: in.TransactionType,
			MatchStatus:     models.MatchStatusUnmatched,
		}
		if txn.TransactionType == "" {
			txn.TransactionType = models.TypeOther
		}
		if txn.ValueDate.IsZero() {
			txn.ValueDate = txn.TransactionDate
		}
		net = net.Add(txn.NetAmount())
		stmt.Transactions = append(stmt.Transactions, txn)
	}

	if !stmt.OpeningBalance.Add(net).Equal(stmt.ClosingBalance) {
		logger.L.Warn("Statement balances do not reconcile with line items",
			"statementID", stmt.ID,
			"openingBalance", stmt.OpeningBalance,
			"closingBalance", stmt.ClosingBalance,
			"netMovement", net)
	}

	s.store.AddStatement(stmt)
	s.invalidateAccountCache(stmt.AccountID)
	logger.L.Info("ImportBankStatement END", "statementID", stmt.ID, "accountID", stmt.AccountID)
	return stmt, nil
}

func (s *reconciliationServiceImpl) StartReconciliation(accountID string, periodStart, periodEnd time.Time, createdBy string) (*models.Reconciliation, error) {
	logger.L.Info("StartReconciliation START", "accountID", accountID, "periodStart", periodStart, "periodEnd", periodEnd)

	bankTxns := s.store.BankTransactionsInPeriod(accountID, periodStart, periodEnd)
	bookTxns := s.store.BookTransactionsInPeriod(accountID, periodStart, periodEnd)

	r := &models.Reconciliation{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      models.ReconciliationInProgress,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
		BankBalance: decimal.Zero,
		BookBalance: decimal.Zero,
	}

	for _, txn := range bankTxns {
		r.BankBalance = r.BankBalance.Add(txn.NetAmount())
		if txn.MatchStatus == models.MatchStatusUnmatched {
			r.UnmatchedBank = append(r.UnmatchedBank, txn)
		}
	}
	for _, txn := range bookTxns {
		r.BookBalance = r.BookBalance.Add(txn.SignedAmount())
		if txn.Status == models.BookStatusPending {
			r.UnmatchedBook = append(r.UnmatchedBook, txn)
		}
	}
	r.TotalBankTransactions = len(bankTxns)
	r.TotalBookTransactions = len(bookTxns)
	s.recomputeDifference(r)

	s.autoMatchPass(r)
	s.store.PutReconciliation(r)
	s.invalidateAccountCache(accountID)

	logger.L.Info("StartReconciliation END",
		"reconciliationID", r.ID,
		"autoMatched", r.AutoMatchedCount,
		"unmatchedBank", len(r.UnmatchedBank),
		"unmatchedBook", len(r.UnmatchedBook))
	return r, nil
}

func (s *reconciliationServiceImpl) RunAutoMatching(reconciliationID string) (*models.Reconciliation, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	if r.Status != models.ReconciliationInProgress {
		return nil, fmt.Errorf("%w: cannot auto-match in status %s", ErrInvalidStatus, r.Status)
	}

	before := r.AutoMatchedCount
	s.refreshWorkingSets(r)
	s.autoMatchPass(r)
	s.invalidateAccountCache(r.AccountID)
	logger.L.Info("RunAutoMatching", "reconciliationID", r.ID, "newMatches", r.AutoMatchedCount-before)
	return r, nil
}

// refreshWorkingSets pulls period transactions that reached the store after
// the reconciliation was opened into the unmatched working sets, so a re-run
// can pair statement lines against entries the ledger booked late.
func (s *reconciliationServiceImpl) refreshWorkingSets(r *models.Reconciliation) {
	knownBank := make(map[string]bool, len(r.UnmatchedBank)+len(r.MatchedPairs))
	knownBook := make(map[string]bool, len(r.UnmatchedBook)+len(r.MatchedPairs))
	for _, txn := range r.UnmatchedBank {
		knownBank[txn.ID] = true
	}
	for _, txn := range r.UnmatchedBook {
		knownBook[txn.ID] = true
	}
	for _, pair := range r.MatchedPairs {
		knownBank[pair.BankTransactionID] = true
		knownBook[pair.BookTransactionID] = true
	}

	for _, txn := range s.store.BankTransactionsInPeriod(r.AccountID, r.PeriodStart, r.PeriodEnd) {
		if txn.MatchStatus == models.MatchStatusUnmatched && !knownBank[txn.ID] {
			r.UnmatchedBank = append(r.UnmatchedBank, txn)
			r.TotalBankTransactions++
		}
	}
	for _, txn := range s.store.BookTransactionsInPeriod(r.AccountID, r.PeriodStart, r.PeriodEnd) {
		if txn.Status == models.BookStatusPending && !knownBook[txn.ID] {
			r.UnmatchedBook = append(r.UnmatchedBook, txn)
			r.TotalBookTransactions++
		}
	}
	s.recomputeDifference(r)
}

// autoMatchPass is the greedy assignment described in the service contract:
// the unmatched bank list is snapshotted at the start of the pass, each bank
// transaction keeps its maximum-confidence candidate (ties keep the first
// candidate encountered), and a commit immediately removes both sides from
// the unmatched sets. A locally best match can therefore block a better
// downstream match; this is the documented behavior, not an oversight.
func (s *reconciliationServiceImpl) autoMatchPass(r *models.Reconciliation) {
	rules := s.store.ActiveRules()
	threshold := config.Cfg.AutoMatchThreshold

	snapshot := make([]*models.BankTransaction, len(r.UnmatchedBank))
	copy(snapshot, r.UnmatchedBank)

	for _, bank := range snapshot {
		bestScore := 0
		var best *models.BookTransaction
		for _, book := range r.UnmatchedBook {
			if score := s.engine.Score(bank, book, rules); score > bestScore {
				bestScore = score
				best = book
			}
		}
		if best != nil && bestScore >= threshold {
			s.commitPair(r, bank, best, models.MatchTypeAuto, bestScore, "")
		}
	}
}

func (s *reconciliationServiceImpl) ManualMatch(reconciliationID, bankTxnID, bookTxnID, notes string) (*models.Reconciliation, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	if r.Status != models.ReconciliationInProgress {
		return nil, fmt.Errorf("%w: cannot match in status %s", ErrInvalidStatus, r.Status)
	}

	bank := findBank(r.UnmatchedBank, bankTxnID)
	if bank == nil {
		return nil, fmt.Errorf("%w: %s not in unmatched set", ErrBankTransactionNotFound, bankTxnID)
	}
	book := findBook(r.UnmatchedBook, bookTxnID)
	if book == nil {
		return nil, fmt.Errorf("%w: %s not in unmatched set", ErrBookTransactionNotFound, bookTxnID)
	}

	// Manual review overrides the scoring model entirely.
	s.commitPair(r, bank, book, models.MatchTypeManual, 100, notes)
	s.invalidateAccountCache(r.AccountID)
	logger.L.Info("ManualMatch", "reconciliationID", r.ID, "bankTxnID", bankTxnID, "bookTxnID", bookTxnID)
	return r, nil
}

func (s *reconciliationServiceImpl) Unmatch(reconciliationID, bankTxnID string) (*models.Reconciliation, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	if r.Status != models.ReconciliationInProgress {
		return nil, fmt.Errorf("%w: cannot unmatch in status %s", ErrInvalidStatus, r.Status)
	}

	pairIdx := -1
	for i, pair := range r.MatchedPairs {
		if pair.BankTransactionID == bankTxnID {
			pairIdx = i
			break
		}
	}
	if pairIdx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrNotMatched, bankTxnID)
	}
	pair := r.MatchedPairs[pairIdx]

	bank := s.store.GetBankTransaction(pair.BankTransactionID)
	book := s.store.GetBookTransaction(pair.BookTransactionID)
	if bank == nil || book == nil {
		return nil, fmt.Errorf("%w: pair references unknown transaction", ErrNotMatched)
	}

	bank.MatchStatus = models.MatchStatusUnmatched
	bank.MatchedTransactionID = ""
	bank.MatchConfidence = 0
	bank.Notes = ""
	book.Status = models.BookStatusPending

	r.UnmatchedBank = append(r.UnmatchedBank, bank)
	r.UnmatchedBook = append(r.UnmatchedBook, book)
	r.MatchedPairs = append(r.MatchedPairs[:pairIdx], r.MatchedPairs[pairIdx+1:]...)
	switch pair.MatchType {
	case models.MatchTypeAuto:
		r.AutoMatchedCount--
	case models.MatchTypeManual:
		r.ManualMatchedCount--
	}
	s.recomputeDifference(r)
	s.invalidateAccountCache(r.AccountID)

	logger.L.Info("Unmatch", "reconciliationID", r.ID, "bankTxnID", bankTxnID, "bookTxnID", pair.BookTransactionID)
	return r, nil
}

func (s *reconciliationServiceImpl) CompleteReconciliation(reconciliationID, completedBy string) (*models.Reconciliation, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	if r.Status != models.ReconciliationInProgress {
		return nil, fmt.Errorf("%w: cannot complete in status %s", ErrInvalidStatus, r.Status)
	}

	tolerance := decimal.NewFromFloat(config.Cfg.BalanceTolerance)
	if r.Difference.Abs().GreaterThan(tolerance) {
		return nil, fmt.Errorf("%w: difference is %s", ErrUnbalanced, r.Difference.String())
	}

	now := time.Now().UTC()
	r.Status = models.ReconciliationCompleted
	r.CompletedBy = completedBy
	r.CompletedAt = &now
	s.invalidateAccountCache(r.AccountID)

	logger.L.Info("CompleteReconciliation", "reconciliationID", r.ID, "completedBy", completedBy)
	return r, nil
}

func (s *reconciliationServiceImpl) ApproveReconciliation(reconciliationID, approvedBy string) (*models.Reconciliation, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	if r.Status != models.ReconciliationCompleted {
		return nil, fmt.Errorf("%w: cannot approve in status %s", ErrInvalidStatus, r.Status)
	}

	// Approval finalizes the paired book entries. This is the only place a
	// book transaction reaches its terminal status.
	for _, pair := range r.MatchedPairs {
		if book := s.store.GetBookTransaction(pair.BookTransactionID); book != nil {
			book.Status = models.BookStatusReconciled
		}
	}

	now := time.Now().UTC()
	r.Status = models.ReconciliationApproved
	r.ApprovedBy = approvedBy
	r.ApprovedAt = &now
	s.invalidateAccountCache(r.AccountID)

	logger.L.Info("ApproveReconciliation", "reconciliationID", r.ID, "approvedBy", approvedBy, "pairs", len(r.MatchedPairs))
	return r, nil
}

func (s *reconciliationServiceImpl) GetReconciliation(reconciliationID string) (*models.Reconciliation, error) {
	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	return r, nil
}

func (s *reconciliationServiceImpl) GetSuggestedMatches(reconciliationID, bankTxnID string) ([]models.SuggestedMatch, error) {
	mu := s.lockFor(reconciliationID)
	mu.Lock()
	defer mu.Unlock()

	r := s.store.GetReconciliation(reconciliationID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationNotFound, reconciliationID)
	}
	bank := findBank(r.UnmatchedBank, bankTxnID)
	if bank == nil {
		return nil, fmt.Errorf("%w: %s not in unmatched set", ErrBankTransactionNotFound, bankTxnID)
	}

	rules := s.store.ActiveRules()
	var suggestions []models.SuggestedMatch
	for _, book := range r.UnmatchedBook {
		score := s.engine.Score(bank, book, rules)
		if score <= 0 {
			continue
		}
		suggestions = append(suggestions, models.SuggestedMatch{
			BookTransaction: book,
			Confidence:      score,
			Reasons:         s.engine.Reasons(bank, book),
		})
	}

	// Stable sort keeps encounter order for equal confidence.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	limit := config.Cfg.SuggestionLimit
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (s *reconciliationServiceImpl) GetReconciliationSummary(accountID string) (*models.ReconciliationSummary, error) {
	cacheKey := fmt.Sprintf(ckSummary, accountID)
	if cached, found := s.summaryCache.Get(cacheKey); found {
		logger.L.Debug("Returning reconciliation summary from cache", "accountID", accountID)
		return cached.(*models.ReconciliationSummary), nil
	}

	summary := &models.ReconciliationSummary{AccountID: accountID}
	for _, stmt := range s.store.StatementsByAccount(accountID) {
		summary.StatementCount++
		for _, txn := range stmt.Transactions {
			summary.BankTransactionCount++
			if txn.MatchStatus == models.MatchStatusMatched {
				summary.MatchedBankCount++
			} else {
				summary.UnmatchedBankCount++
			}
		}
	}
	for _, txn := range s.store.BookTransactionsByAccount(accountID) {
		switch txn.Status {
		case models.BookStatusPending:
			summary.PendingBookCount++
		case models.BookStatusReconciled:
			summary.ReconciledBookCount++
		}
	}
	if recons := s.store.ReconciliationsByAccount(accountID); len(recons) > 0 {
		last := recons[len(recons)-1]
		summary.LastReconciliationID = last.ID
		summary.LastStatus = last.Status
		summary.LastReconciledAt = last.CompletedAt
	}

	s.summaryCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *reconciliationServiceImpl) GetOutstandingItems(accountID string) (*models.OutstandingItems, error) {
	cacheKey := fmt.Sprintf(ckOutstanding, accountID)
	if cached, found := s.summaryCache.Get(cacheKey); found {
		logger.L.Debug("Returning outstanding items from cache", "accountID", accountID)
		return cached.(*models.OutstandingItems), nil
	}

	items := &models.OutstandingItems{AccountID: accountID, TotalOutstanding: decimal.Zero}
	for _, txn := range s.store.BookTransactionsByAccount(accountID) {
		if txn.Status != models.BookStatusPending {
			continue
		}
		if txn.IsDebit {
			items.UnpresentedCheques = append(items.UnpresentedCheques, txn)
		} else {
			items.DepositsInTransit = append(items.DepositsInTransit, txn)
		}
		items.TotalOutstanding = items.TotalOutstanding.Add(txn.Amount)
	}
	for _, stmt := range s.store.StatementsByAccount(accountID) {
		for _, txn := range stmt.Transactions {
			if txn.MatchStatus != models.MatchStatusUnmatched {
				continue
			}
			if txn.IsDebit() && isBankCharge(txn) {
				items.BankCharges = append(items.BankCharges, txn)
				items.TotalOutstanding = items.TotalOutstanding.Add(txn.DebitAmount)
			} else if !txn.IsDebit() {
				items.UnidentifiedCredits = append(items.UnidentifiedCredits, txn)
				items.TotalOutstanding = items.TotalOutstanding.Add(txn.CreditAmount)
			}
		}
	}

	s.summaryCache.Set(cacheKey, items, cache.DefaultExpiration)
	return items, nil
}

// commitPair moves one bank/book pair from the unmatched sets to the matched
// list and recomputes the difference. Callers hold the reconciliation lock.
func (s *reconciliationServiceImpl) commitPair(r *models.Reconciliation, bank *models.BankTransaction, book *models.BookTransaction, matchType models.MatchType, confidence int, notes string) {
	bank.MatchStatus = models.MatchStatusMatched
	bank.MatchedTransactionID = book.ID
	bank.MatchConfidence = confidence
	bank.Notes = notes
	book.Status = models.BookStatusCleared

	r.UnmatchedBank = removeBank(r.UnmatchedBank, bank.ID)
	r.UnmatchedBook = removeBook(r.UnmatchedBook, book.ID)
	r.MatchedPairs = append(r.MatchedPairs, models.MatchedPair{
		BankTransactionID: bank.ID,
		BookTransactionID: book.ID,
		MatchType:         matchType,
		Confidence:        confidence,
		MatchedAt:         time.Now().UTC(),
		Notes:             notes,
	})
	switch matchType {
	case models.MatchTypeAuto:
		r.AutoMatchedCount++
	case models.MatchTypeManual:
		r.ManualMatchedCount++
	}
	s.recomputeDifference(r)
}

// recomputeDifference rebuilds the difference from scratch after every
// mutation: unmatched bank net movement minus unmatched book signed amount.
// Recomputing instead of adjusting incrementally keeps the value from
// drifting.
func (s *reconciliationServiceImpl) recomputeDifference(r *models.Reconciliation) {
	diff := decimal.Zero
	for _, txn := range r.UnmatchedBank {
		diff = diff.Add(txn.NetAmount())
	}
	for _, txn := range r.UnmatchedBook {
		diff = diff.Sub(txn.SignedAmount())
	}
	r.Difference = diff
}

func (s *reconciliationServiceImpl) invalidateAccountCache(accountID string) {
	s.summaryCache.Delete(fmt.Sprintf(ckSummary, accountID))
	s.summaryCache.Delete(fmt.Sprintf(ckOutstanding, accountID))
}

func isBankCharge(txn *models.BankTransaction) bool {
	if txn.TransactionType == models.TypeCharge {
		return true
	}
	desc := strings.ToUpper(txn.Description)
	return strings.Contains(desc, "CHARGE") || strings.Contains(desc, "FEE")
}

func findBank(txns []*models.BankTransaction, id string) *models.BankTransaction {
	for _, txn := range txns {
		if txn.ID == id {
			return txn
		}
	}
	return nil
}

func findBook(txns []*models.BookTransaction, id string) *models.BookTransaction {
	for _, txn := range txns {
		if txn.ID == id {
			return txn
		}
	}
	return nil
}

func removeBank(txns []*models.BankTransaction, id string) []*models.BankTransaction {
	for i, txn := range txns {
		if txn.ID == id {
			return append(txns[:i], txns[i+1:]...)
		}
	}
	return txns
}

func removeBook(txns []*models.BookTransaction, id string) []*models.BookTransaction {
	for i, txn := range txns {
		if txn.ID == id {
			return append(txns[:i], txns[i+1:]...)
		}
	}
	return txns
}
