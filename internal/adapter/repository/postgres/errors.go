package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finprim/ledger/internal/domain"
)

// pgErrRaiseException is the SQLSTATE produced by RAISE EXCEPTION, which the
// immutability triggers use to reject writes against posted rows.
const pgErrRaiseException = "P0001"

// mapWriteError translates errors raised by the immutability triggers into
// the domain sentinel. The message marker keeps unrelated RAISEs from being
// mistaken for trigger rejections. Everything else passes through untouched.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrRaiseException && strings.Contains(pgErr.Message, "immutable") {
		return domain.ErrImmutableEntry
	}

	return err
}
