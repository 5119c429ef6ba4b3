package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")

	// Posting errors
	ErrUnbalancedTransaction = errors.New("transaction debits and credits do not balance")
	ErrInvalidEntry          = errors.New("invalid entry")
	ErrMixedCurrency         = errors.New("entries mix currencies without balancing per currency")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrEntryNotFound         = errors.New("entry not found")

	// ErrImmutableEntry guards the append-only core: posted transactions and
	// their entries can never be modified or deleted.
	ErrImmutableEntry = errors.New("posted entries cannot be modified or deleted")
)
