package services

import "errors"

// Not-found class errors: the referenced id does not exist in the set the
// operation expects it in. For match operations the unmatched working set is
// the expected set, so "already matched" surfaces as not found.
var (
	ErrReconciliationNotFound  = errors.New("reconciliation not found")
	ErrBankTransactionNotFound = errors.New("bank transaction not found")
	ErrBookTransactionNotFound = errors.New("book transaction not found")
)

// Invalid-state class errors: the operation is not legal for the aggregate's
// current state. Non-retryable; the caller must correct the request.
var (
	ErrNotMatched    = errors.New("bank transaction has no committed match")
	ErrUnbalanced    = errors.New("reconciliation difference exceeds tolerance")
	ErrInvalidStatus = errors.New("operation not allowed in current reconciliation status")
)
