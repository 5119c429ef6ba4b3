package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finprim/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForShare locks the rows in sorted id order so concurrent
	// postings never deadlock and deactivation cannot slip between the
	// active check and the commit.
	GetByIDsForShare(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	SetActive(ctx context.Context, tx Tx, id string, active bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error)
	ListByType(ctx context.Context, accountType domain.AccountType, limit, offset int) ([]*domain.Account, error)
	ListByCurrency(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	// Create inserts a draft row (posted_at null). Drafts only ever exist
	// inside an open database transaction.
	Create(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	// MarkPosted flips posted_at on a draft. The database forbids any
	// later update, so this is the one sanctioned write.
	MarkPosted(ctx context.Context, tx Tx, id string, postedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Tx, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// GetBalance derives debit_sum - credit_sum over the account's posted
	// entries. Balances are never stored.
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// LedgerRepository defines data access for ledger-wide reporting.
type LedgerRepository interface {
	TrialBalance(ctx context.Context) ([]domain.TrialBalanceRow, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles database transaction lifecycle. Begin starts a
// serializable transaction; posting correctness depends on it.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retryer re-runs a unit of work when the database reports a transient
// serialization conflict.
type Retryer interface {
	Do(ctx context.Context, fn func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a claimed key so the request may be retried.
	Delete(ctx context.Context, key string) error
}
