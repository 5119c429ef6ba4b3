package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

var validate = validator.New()

// Validate runs the struct-tag rules on a request.
func Validate(req any) error {
	return validate.Struct(req)
}

// ValidationDetails flattens a validator error into field -> violated rule
// pairs for the details section of an error response. Returns nil for
// non-validation errors.
func ValidationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// CreateAccountRequest represents a request to create an account. Currency
// must be an upper-case ISO 4217 code; the engine does not normalize case at
// the API boundary.
type CreateAccountRequest struct {
	OwnerKind     string `json:"owner_kind" validate:"required,max=100"`
	OwnerID       string `json:"owner_id" validate:"required,max=255"`
	AccountType   string `json:"account_type" validate:"required,oneof=asset liability equity revenue expense"`
	Currency      string `json:"currency" validate:"required,iso4217"`
	Name          string `json:"name,omitempty" validate:"omitempty,max=255"`
	AccountNumber string `json:"account_number,omitempty" validate:"omitempty,max=64"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerKind:     r.OwnerKind,
		OwnerID:       r.OwnerID,
		Type:          r.AccountType,
		Currency:      r.Currency,
		Name:          r.Name,
		AccountNumber: r.AccountNumber,
	}
}

// AccountActionRequest carries the optional audit actor for deactivate and
// reactivate calls. The body may be omitted entirely.
type AccountActionRequest struct {
	Actor string `json:"actor,omitempty" validate:"omitempty,max=255"`
}

// EntryItem represents a single leg of a transaction. Amount is a decimal
// string so callers never lose precision to JSON numbers.
type EntryItem struct {
	AccountID   string `json:"account_id" validate:"required"`
	EntryType   string `json:"entry_type" validate:"required,oneof=debit credit"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description,omitempty" validate:"omitempty,max=255"`
}

// RecordTransactionRequest represents a request to post a transaction.
type RecordTransactionRequest struct {
	Description string         `json:"description,omitempty" validate:"omitempty,max=255"`
	Entries     []EntryItem    `json:"entries" validate:"required,min=1,dive"`
	EffectiveAt *time.Time     `json:"effective_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input, parsing the decimal amounts.
func (r *RecordTransactionRequest) ToUseCaseInput() (usecase.RecordTransactionInput, error) {
	entries := make([]usecase.EntryInput, len(r.Entries))
	for i, item := range r.Entries {
		amount, err := decimal.NewFromString(item.Amount)
		if err != nil {
			return usecase.RecordTransactionInput{}, fmt.Errorf("entry %d: invalid amount %q: %w", i, item.Amount, err)
		}
		entries[i] = usecase.EntryInput{
			AccountID:   item.AccountID,
			Type:        domain.EntryType(item.EntryType),
			Amount:      amount,
			Description: item.Description,
		}
	}

	return usecase.RecordTransactionInput{
		Description: r.Description,
		Entries:     entries,
		EffectiveAt: r.EffectiveAt,
		Metadata:    r.Metadata,
	}, nil
}

// ReverseEntryRequest represents a request to reverse a single entry.
type ReverseEntryRequest struct {
	Reason      string     `json:"reason" validate:"required,max=255"`
	Actor       string     `json:"actor,omitempty" validate:"omitempty,max=255"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseEntryRequest) ToUseCaseInput(entryID string) usecase.ReverseEntryInput {
	return usecase.ReverseEntryInput{
		EntryID:     entryID,
		Reason:      r.Reason,
		Actor:       r.Actor,
		EffectiveAt: r.EffectiveAt,
	}
}

// ReverseTransactionRequest represents a request to reverse a whole
// transaction.
type ReverseTransactionRequest struct {
	Reason      string     `json:"reason" validate:"required,max=255"`
	Actor       string     `json:"actor,omitempty" validate:"omitempty,max=255"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseTransactionRequest) ToUseCaseInput(transactionID string) usecase.ReverseTransactionInput {
	return usecase.ReverseTransactionInput{
		TransactionID: transactionID,
		Reason:        r.Reason,
		Actor:         r.Actor,
		EffectiveAt:   r.EffectiveAt,
	}
}
