package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

const (
	sqlInsertTransaction = `
		INSERT INTO transactions (id, description, metadata, effective_at, recorded_at, posted_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
	`

	sqlMarkTransactionPosted = `
		UPDATE transactions SET posted_at = $2 WHERE id = $1
	`

	sqlSelectTransaction = `
		SELECT id, description, metadata, effective_at, recorded_at, posted_at
		FROM transactions
	`

	// Drafts only exist inside an open database transaction, so the
	// posted_at filter is belt and braces for readers.
	sqlTransactionByID = sqlSelectTransaction + ` WHERE id = $1 AND posted_at IS NOT NULL`

	sqlTransactionsByAccount = `
		SELECT DISTINCT t.id, t.description, t.metadata, t.effective_at, t.recorded_at, t.posted_at
		FROM transactions t
		JOIN entries e ON e.transaction_id = t.id
		WHERE e.account_id = $1 AND t.posted_at IS NOT NULL
		ORDER BY t.recorded_at DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`

	sqlEntriesByTransactionIDs = sqlSelectEntry + ` WHERE transaction_id = ANY($1) ORDER BY id`
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a draft transaction (posted_at null) within a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	var metadata []byte
	if transaction.Metadata != nil {
		var err error

		metadata, err = json.Marshal(transaction.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := pgxTx.Exec(ctx, sqlInsertTransaction,
		transaction.ID,
		transaction.Description,
		metadata,
		timeToPgTimestamptz(transaction.EffectiveAt),
		timeToPgTimestamptz(transaction.RecordedAt),
	)

	return err
}

// MarkPosted flips posted_at on a draft. A second flip trips the
// immutability trigger and comes back as ErrImmutableEntry.
func (r *TransactionRepository) MarkPosted(ctx context.Context, tx usecase.Tx, id string, postedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, sqlMarkTransactionPosted, id, timeToPgTimestamptz(postedAt))
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// GetByID retrieves a posted transaction with its entries.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	transaction, err := scanTransaction(r.pool.QueryRow(ctx, sqlTransactionByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	if err := r.attachEntries(ctx, []*domain.Transaction{transaction}); err != nil {
		return nil, err
	}

	return transaction, nil
}

// ListByAccount lists posted transactions touching an account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, sqlTransactionsByAccount, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachEntries(ctx, transactions); err != nil {
		return nil, err
	}

	return transactions, nil
}

// attachEntries loads the entries of the given transactions in one query.
func (r *TransactionRepository) attachEntries(ctx context.Context, transactions []*domain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Transaction, len(transactions))
	ids := make([]string, 0, len(transactions))
	for _, t := range transactions {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	rows, err := r.pool.Query(ctx, sqlEntriesByTransactionIDs, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return err
		}
		if t, ok := byID[entry.TransactionID]; ok {
			t.Entries = append(t.Entries, *entry)
		}
	}

	return rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		transaction domain.Transaction
		metadata    []byte
	)

	err := row.Scan(
		&transaction.ID,
		&transaction.Description,
		&metadata,
		&transaction.EffectiveAt,
		&transaction.RecordedAt,
		&transaction.PostedAt,
	)
	if err != nil {
		return nil, err
	}

	if metadata != nil {
		_ = json.Unmarshal(metadata, &transaction.Metadata)
	}

	return &transaction, nil
}
