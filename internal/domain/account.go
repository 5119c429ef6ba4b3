package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountType classifies an account for reporting purposes. The ledger
// never interprets the type itself; whether a positive balance is good or
// bad for a given type is the caller's concern.
type AccountType string

// Account types.
const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// OwnerRef identifies the external party an account belongs to. The pair is
// opaque to the ledger: Kind names the owner's type in the caller's system
// ("customer", "merchant"), ID is the caller's identifier for it.
type OwnerRef struct {
	Kind string
	ID   string
}

// Validate checks that both halves of the reference are present.
func (o OwnerRef) Validate() error {
	if strings.TrimSpace(o.Kind) == "" || strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: owner kind and id are required", ErrInvalidOwnerRef)
	}
	return nil
}

// String renders the reference as kind:id for logs and event payloads.
func (o OwnerRef) String() string {
	return o.Kind + ":" + o.ID
}

// Account represents a ledger account. Balances are never stored on the
// account; they are always derived from posted entries.
type Account struct {
	ID            string
	Owner         OwnerRef
	Type          AccountType
	Currency      string
	Name          string
	AccountNumber string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the account's own fields. Currency must already be
// normalized to upper case.
func (a *Account) Validate() error {
	if err := a.Owner.Validate(); err != nil {
		return err
	}
	if err := ValidateAccountType(string(a.Type)); err != nil {
		return err
	}
	if err := ValidateCurrency(a.Currency); err != nil {
		return err
	}
	if a.Name != "" {
		if err := ValidateAccountName(a.Name); err != nil {
			return err
		}
	}
	if len(a.AccountNumber) > MaxAccountNumberLength {
		return fmt.Errorf("%w: account number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}
	return nil
}
