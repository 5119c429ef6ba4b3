package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

const (
	sqlInsertEntry = `
		INSERT INTO entries (id, transaction_id, account_id, type, amount, currency, description, effective_at, recorded_at, reverses_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	sqlSelectEntry = `
		SELECT id, transaction_id, account_id, type, amount, currency, description, effective_at, recorded_at, reverses_id, metadata
		FROM entries
	`

	sqlEntryByID = sqlSelectEntry + `
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM transactions t WHERE t.id = entries.transaction_id AND t.posted_at IS NOT NULL)
	`

	sqlEntriesByTransaction = sqlSelectEntry + ` WHERE transaction_id = $1 ORDER BY id`

	sqlEntriesByAccount = sqlSelectEntry + `
		WHERE account_id = $1
		  AND EXISTS (SELECT 1 FROM transactions t WHERE t.id = entries.transaction_id AND t.posted_at IS NOT NULL)
		ORDER BY effective_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	// The ledger never stores balances; this aggregate is the balance.
	sqlAccountBalance = `
		SELECT COALESCE(SUM(CASE WHEN e.type = 'debit' THEN e.amount ELSE -e.amount END), 0)
		FROM entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1 AND t.posted_at IS NOT NULL
	`

	sqlAccountBalanceAsOf = sqlAccountBalance + ` AND e.effective_at <= $2`
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts an entry within a transaction. Inserting against an
// already-posted transaction trips the immutability trigger.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Tx, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	var metadata []byte
	if entry.Metadata != nil {
		var err error

		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := pgxTx.Exec(ctx, sqlInsertEntry,
		entry.ID,
		entry.TransactionID,
		entry.AccountID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		entry.Currency,
		entry.Description,
		timeToPgTimestamptz(entry.EffectiveAt),
		timeToPgTimestamptz(entry.RecordedAt),
		entry.ReversesID,
		metadata,
	)

	return mapWriteError(err)
}

// GetByID retrieves a posted entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, sqlEntryByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// GetByTransaction retrieves the entries of one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	return r.queryEntries(ctx, sqlEntriesByTransaction, transactionID)
}

// ListByAccount retrieves an account's entries, newest effective first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	return r.queryEntries(ctx, sqlEntriesByAccount, accountID, limit, offset)
}

// GetBalance derives the account balance from its posted entries.
func (r *EntryRepository) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return r.queryBalance(ctx, sqlAccountBalance, accountID)
}

// GetBalanceAsOf derives the balance from entries effective at or before
// the given time.
func (r *EntryRepository) GetBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	return r.queryBalance(ctx, sqlAccountBalanceAsOf, accountID, timeToPgTimestamptz(asOf))
}

func (r *EntryRepository) queryBalance(ctx context.Context, sql string, args ...any) (decimal.Decimal, error) {
	var balance pgtype.Numeric

	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

func (r *EntryRepository) queryEntries(ctx context.Context, sql string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry     domain.Entry
		entryType string
		amount    pgtype.Numeric
		metadata  []byte
	)

	err := row.Scan(
		&entry.ID,
		&entry.TransactionID,
		&entry.AccountID,
		&entryType,
		&amount,
		&entry.Currency,
		&entry.Description,
		&entry.EffectiveAt,
		&entry.RecordedAt,
		&entry.ReversesID,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	entry.Type = domain.EntryType(entryType)
	entry.Amount = numericToDecimal(amount)
	if metadata != nil {
		_ = json.Unmarshal(metadata, &entry.Metadata)
	}

	return &entry, nil
}
