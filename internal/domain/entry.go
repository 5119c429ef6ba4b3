package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType marks which side of the books an entry sits on.
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// Valid reports whether the type is debit or credit.
func (t EntryType) Valid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// Opposite returns the other side. Used when building reversals.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// Entry represents a single debit or credit against one account. Entries are
// immutable once their transaction is posted.
type Entry struct {
	ID            string
	TransactionID string
	AccountID     string
	Type          EntryType
	Amount        decimal.Decimal
	Currency      string
	Description   string
	EffectiveAt   time.Time
	RecordedAt    time.Time
	ReversesID    *string
	Metadata      map[string]any
}

// SignedAmount returns the amount with debits positive and credits negative,
// the convention balance queries sum under.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// IsReversal reports whether this entry negates another entry.
func (e *Entry) IsReversal() bool {
	return e.ReversesID != nil && *e.ReversesID != ""
}
