package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finprim/ledger/internal/domain"
)

const sqlTrialBalance = `
	SELECT e.currency,
	       COALESCE(SUM(e.amount) FILTER (WHERE e.type = 'debit'), 0)  AS debits,
	       COALESCE(SUM(e.amount) FILTER (WHERE e.type = 'credit'), 0) AS credits
	FROM entries e
	JOIN transactions t ON t.id = e.transaction_id
	WHERE t.posted_at IS NOT NULL
	GROUP BY e.currency
	ORDER BY e.currency
`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// TrialBalance sums posted debits and credits per currency.
func (r *LedgerRepository) TrialBalance(ctx context.Context) ([]domain.TrialBalanceRow, error) {
	rows, err := r.pool.Query(ctx, sqlTrialBalance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrialBalanceRow
	for rows.Next() {
		var (
			row     domain.TrialBalanceRow
			debits  pgtype.Numeric
			credits pgtype.Numeric
		)

		if err := rows.Scan(&row.Currency, &debits, &credits); err != nil {
			return nil, err
		}

		row.Debits = numericToDecimal(debits)
		row.Credits = numericToDecimal(credits)
		result = append(result, row)
	}

	return result, rows.Err()
}
