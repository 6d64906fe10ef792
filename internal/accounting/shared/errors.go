package shared

import "errors"

var (
	// ErrUnbalancedEntry indicates debit != credit on a constructed entry.
	ErrUnbalancedEntry = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrAlreadyPosted indicates the transaction is not in draft.
	ErrAlreadyPosted = errors.New("accounting: transaction already posted")
	// ErrNotPosted indicates the transaction is not posted.
	ErrNotPosted = errors.New("accounting: transaction not posted")
	// ErrOverpaymentAlreadyResolved indicates the overpayment is not pending.
	ErrOverpaymentAlreadyResolved = errors.New("accounting: overpayment already resolved")
	// ErrNoOverpayment indicates the payment carries no excess amount.
	ErrNoOverpayment = errors.New("accounting: payment has no overpayment")
	// ErrInvalidBank indicates the referenced bank is missing or inactive.
	ErrInvalidBank = errors.New("accounting: invalid bank")
	// ErrAccountNotFound indicates missing chart-of-accounts node.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrTransactionNotFound indicates missing source transaction.
	ErrTransactionNotFound = errors.New("accounting: transaction not found")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked to a journal entry")
	// ErrInvalidStatus indicates action can't proceed.
	ErrInvalidStatus = errors.New("accounting: invalid status transition")
)
