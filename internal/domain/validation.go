package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName   = errors.New("invalid account name")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidOwnerRef      = errors.New("invalid owner reference")
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrMetadataTooLarge     = errors.New("metadata size exceeds limit")
)

// Validation constants
const (
	MaxAccountNameLength   = 255
	MinAccountNameLength   = 1
	MaxAccountNumberLength = 20
	MaxDescriptionLength   = 500
	MaxMetadataSize        = 10240 // 10KB

	// AmountScale is the internal precision every amount is kept at.
	// Finer fractions are rejected, never rounded.
	AmountScale = 4

	// MaxEntryAmount is the NUMERIC(19,4) ceiling.
	MaxEntryAmount = "999999999999999.9999"
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
	"PLN": true, "DKK": true, "CZK": true, "AED": true,
}

// Valid account types. The accounts table enforces the same set.
var validAccountTypes = map[string]bool{
	"asset": true, "liability": true, "equity": true,
	"revenue": true, "expense": true,
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	// Check for SQL injection attempts
	dangerous := []string{"--", "/*", "*/", ";", "DROP", "DELETE", "INSERT", "UPDATE"}
	nameUpper := strings.ToUpper(name)
	for _, pattern := range dangerous {
		if strings.Contains(nameUpper, pattern) {
			return fmt.Errorf("%w: contains forbidden characters", ErrInvalidAccountName)
		}
	}

	return nil
}

// ValidateAccountType validates an account type.
func ValidateAccountType(accountType string) error {
	if !validAccountTypes[accountType] {
		return fmt.Errorf("%w: %q is not one of asset, liability, equity, revenue, expense", ErrInvalidAccountType, accountType)
	}
	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates an entry amount: strictly positive, at most
// AmountScale decimal places, within the storage ceiling.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidEntry, AmountScale)
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateBalanced checks the double-entry law over a set of entries whose
// Currency fields are filled in. When entries span currencies, every
// currency group must balance on its own: balanced groups are the explicit
// conversion legs, and anything else is silent cross-currency netting,
// rejected with ErrMixedCurrency before totals are even compared. A
// single-currency set that does not balance fails with
// ErrUnbalancedTransaction.
func ValidateBalanced(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: transaction has no entries", ErrInvalidEntry)
	}

	type totals struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}

	byCurrency := make(map[string]totals)

	for i := range entries {
		e := &entries[i]
		t := byCurrency[e.Currency]
		switch e.Type {
		case EntryTypeDebit:
			t.debit = t.debit.Add(e.Amount)
		case EntryTypeCredit:
			t.credit = t.credit.Add(e.Amount)
		default:
			return fmt.Errorf("%w: entry type must be debit or credit", ErrInvalidEntry)
		}
		byCurrency[e.Currency] = t
	}

	if len(byCurrency) > 1 {
		for currency, t := range byCurrency {
			if !t.debit.Equal(t.credit) {
				return fmt.Errorf("%w: %s debits %s, credits %s", ErrMixedCurrency, currency, t.debit, t.credit)
			}
		}
		return nil
	}

	for _, t := range byCurrency {
		if !t.debit.Equal(t.credit) {
			return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedTransaction, t.debit, t.credit)
		}
	}

	return nil
}

// ValidateReversal checks that a reversal entry exactly negates its
// original: opposite type, same account, same amount. The original must
// belong to a posted transaction; drafts are never visible to reverse.
func ValidateReversal(reversal, original *Entry) error {
	if reversal.AccountID != original.AccountID {
		return fmt.Errorf("%w: reversal must target the original's account", ErrInvalidEntry)
	}
	if !reversal.Amount.Equal(original.Amount) {
		return fmt.Errorf("%w: reversal amount must equal the original's", ErrInvalidEntry)
	}
	if reversal.Type != original.Type.Opposite() {
		return fmt.Errorf("%w: reversal must be the opposite entry type", ErrInvalidEntry)
	}
	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidateDescription validates an optional description field.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidEntry, MaxDescriptionLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
