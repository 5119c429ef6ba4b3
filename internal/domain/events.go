package domain

import "time"

// Event types
const (
	EventTypeTransactionPosted   = "transaction.posted"
	EventTypeTransactionReversed = "transaction.reversed"
	EventTypeEntryReversed       = "entry.reversed"
	EventTypeAccountCreated      = "account.created"
	EventTypeAccountDeactivated  = "account.deactivated"
	EventTypeAccountReactivated  = "account.reactivated"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryRecord is the per-entry slice of an audit payload.
type EntryRecord struct {
	EntryID         string `json:"entry_id"`
	AccountID       string `json:"account_id"`
	EntryType       string `json:"entry_type"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	ReversesEntryID string `json:"reverses_entry_id,omitempty"`
}

// TransactionPostedEvent payload. Downstream audit consumers mirror exactly
// this shape: the transaction, its entries, the actor, and the system time.
type TransactionPostedEvent struct {
	TransactionID string        `json:"transaction_id"`
	Entries       []EntryRecord `json:"entries"`
	Actor         string        `json:"actor,omitempty"`
	RecordedAt    string        `json:"recorded_at"`
	EffectiveAt   string        `json:"effective_at"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	TransactionID   string        `json:"transaction_id"`
	ReversedEntryID string        `json:"reversed_entry_id"`
	Entries         []EntryRecord `json:"entries"`
	Actor           string        `json:"actor,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	RecordedAt      string        `json:"recorded_at"`
}

// TransactionReversedEvent payload
type TransactionReversedEvent struct {
	TransactionID         string        `json:"transaction_id"`
	ReversedTransactionID string        `json:"reversed_transaction_id"`
	Entries               []EntryRecord `json:"entries"`
	Actor                 string        `json:"actor,omitempty"`
	Reason                string        `json:"reason,omitempty"`
	RecordedAt            string        `json:"recorded_at"`
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID string `json:"account_id"`
	OwnerKind string `json:"owner_kind"`
	OwnerID   string `json:"owner_id"`
	Type      string `json:"type"`
	Currency  string `json:"currency"`
	Name      string `json:"name,omitempty"`
}

// AccountStatusEvent payload for deactivate/reactivate.
type AccountStatusEvent struct {
	AccountID string `json:"account_id"`
	Active    bool   `json:"active"`
	Actor     string `json:"actor,omitempty"`
}
