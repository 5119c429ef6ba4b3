package postgres

import (
	"context"
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
	sqlInsertAccount = `
		INSERT INTO accounts (id, owner_kind, owner_id, type, currency, name, account_number, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	sqlSelectAccount = `
		SELECT id, owner_kind, owner_id, type, currency, name, account_number, active, created_at, updated_at
		FROM accounts
	`

	sqlAccountByID = sqlSelectAccount + ` WHERE id = $1`

	// Rows come back in id order because the caller locks in id order.
	sqlAccountsByIDsForShare = sqlSelectAccount + ` WHERE id = ANY($1) ORDER BY id FOR SHARE`

	sqlSetAccountActive = `
		UPDATE accounts SET active = $2, updated_at = $3 WHERE id = $1
	`

	sqlListAccounts = sqlSelectAccount + `
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2
	`

	sqlListAccountsByOwner = sqlSelectAccount + `
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4
	`

	sqlListAccountsByType = sqlSelectAccount + `
		WHERE type = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3
	`

	sqlListAccountsByCurrency = sqlSelectAccount + `
		WHERE currency = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3
	`
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account within a transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, sqlInsertAccount,
		account.ID,
		account.Owner.Kind,
		account.Owner.ID,
		string(account.Type),
		account.Currency,
		account.Name,
		account.AccountNumber,
		account.Active,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, sqlAccountByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDsForShare retrieves accounts by IDs with FOR SHARE locks. The lock
// keeps the rows (and their active flag) stable until the posting commits.
func (r *AccountRepository) GetByIDsForShare(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, sqlAccountsByIDsForShare, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// SetActive flips the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Tx, id string, active bool, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, sqlSetAccountActive, id, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return r.queryAccounts(ctx, sqlListAccounts, limit, offset)
}

// ListByOwner lists an owner's accounts.
func (r *AccountRepository) ListByOwner(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error) {
	return r.queryAccounts(ctx, sqlListAccountsByOwner, owner.Kind, owner.ID, limit, offset)
}

// ListByType lists accounts of one type.
func (r *AccountRepository) ListByType(ctx context.Context, accountType domain.AccountType, limit, offset int) ([]*domain.Account, error) {
	return r.queryAccounts(ctx, sqlListAccountsByType, string(accountType), limit, offset)
}

// ListByCurrency lists accounts in one currency.
func (r *AccountRepository) ListByCurrency(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error) {
	return r.queryAccounts(ctx, sqlListAccountsByCurrency, currency, limit, offset)
}

func (r *AccountRepository) queryAccounts(ctx context.Context, sql string, args ...any) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account     domain.Account
		accountType string
	)

	err := row.Scan(
		&account.ID,
		&account.Owner.Kind,
		&account.Owner.ID,
		&accountType,
		&account.Currency,
		&account.Name,
		&account.AccountNumber,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
