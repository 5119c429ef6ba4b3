package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a derived snapshot of one account's position. Debits count
// positive, credits negative; sign interpretation belongs to the caller.
type Balance struct {
	AccountID string
	Currency  string
	Amount    decimal.Decimal
	AsOf      *time.Time
}

// TrialBalanceRow aggregates one currency across the whole ledger.
type TrialBalanceRow struct {
	Currency string
	Debits   decimal.Decimal
	Credits  decimal.Decimal
}

// Balanced reports whether the row's debits equal its credits. Rows can
// legitimately be off when single legs of transactions have been reversed
// and their counterparts have not.
func (r TrialBalanceRow) Balanced() bool {
	return r.Debits.Equal(r.Credits)
}
