package dto

import (
	"time"

	"github.com/finprim/ledger/internal/domain"
)

// Monetary amounts are rendered as decimal strings in every response; JSON
// numbers cannot carry 4-decimal-place precision reliably.

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string    `json:"id"`
	OwnerKind     string    `json:"owner_kind"`
	OwnerID       string    `json:"owner_id"`
	AccountType   string    `json:"account_type"`
	Currency      string    `json:"currency"`
	Name          string    `json:"name,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		OwnerKind:     a.Owner.Kind,
		OwnerID:       a.Owner.ID,
		AccountType:   string(a.Type),
		Currency:      a.Currency,
		Name:          a.Name,
		AccountNumber: a.AccountNumber,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            string         `json:"id"`
	TransactionID string         `json:"transaction_id"`
	AccountID     string         `json:"account_id"`
	EntryType     string         `json:"entry_type"`
	Amount        string         `json:"amount"`
	Currency      string         `json:"currency"`
	Description   string         `json:"description,omitempty"`
	EffectiveAt   time.Time      `json:"effective_at"`
	RecordedAt    time.Time      `json:"recorded_at"`
	ReversesID    *string        `json:"reverses_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		EntryType:     string(e.Type),
		Amount:        e.Amount.String(),
		Currency:      e.Currency,
		Description:   e.Description,
		EffectiveAt:   e.EffectiveAt,
		RecordedAt:    e.RecordedAt,
		ReversesID:    e.ReversesID,
		Metadata:      e.Metadata,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// TransactionResponse represents a transaction with its entries.
type TransactionResponse struct {
	ID          string           `json:"id"`
	Description string           `json:"description,omitempty"`
	EffectiveAt time.Time        `json:"effective_at"`
	RecordedAt  time.Time        `json:"recorded_at"`
	PostedAt    *time.Time       `json:"posted_at,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Entries     []*EntryResponse `json:"entries"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	entries := make([]*EntryResponse, len(t.Entries))
	for i := range t.Entries {
		entries[i] = EntryFromDomain(&t.Entries[i])
	}
	return &TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		EffectiveAt: t.EffectiveAt,
		RecordedAt:  t.RecordedAt,
		PostedAt:    t.PostedAt,
		Metadata:    t.Metadata,
		Entries:     entries,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// BalanceResponse represents a derived account balance.
type BalanceResponse struct {
	AccountID string     `json:"account_id"`
	Currency  string     `json:"currency"`
	Balance   string     `json:"balance"`
	AsOf      *time.Time `json:"as_of,omitempty"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.Balance) *BalanceResponse {
	return &BalanceResponse{
		AccountID: b.AccountID,
		Currency:  b.Currency,
		Balance:   b.Amount.String(),
		AsOf:      b.AsOf,
	}
}

// TrialBalanceRowResponse is one currency line of the trial balance.
type TrialBalanceRowResponse struct {
	Currency string `json:"currency"`
	Debits   string `json:"debits"`
	Credits  string `json:"credits"`
	Balanced bool   `json:"balanced"`
}

// TrialBalanceResponse aggregates the whole ledger per currency.
type TrialBalanceResponse struct {
	Rows     []TrialBalanceRowResponse `json:"rows"`
	Balanced bool                      `json:"balanced"`
}

// TrialBalanceFromDomain converts trial balance rows to a response. The
// top-level Balanced flag is the conjunction over all rows.
func TrialBalanceFromDomain(rows []domain.TrialBalanceRow) *TrialBalanceResponse {
	resp := &TrialBalanceResponse{
		Rows:     make([]TrialBalanceRowResponse, len(rows)),
		Balanced: true,
	}
	for i, row := range rows {
		balanced := row.Balanced()
		resp.Rows[i] = TrialBalanceRowResponse{
			Currency: row.Currency,
			Debits:   row.Debits.String(),
			Credits:  row.Credits.String(),
			Balanced: balanced,
		}
		if !balanced {
			resp.Balanced = false
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
