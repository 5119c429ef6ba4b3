package usecase

import (
	"context"
	"errors"

	"github.com/finprim/ledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when posted debits and credits
	// diverge in some currency.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide reporting.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// TrialBalance aggregates posted debits and credits per currency.
func (uc *LedgerUseCase) TrialBalance(ctx context.Context) ([]domain.TrialBalanceRow, error) {
	return uc.ledgerRepo.TrialBalance(ctx)
}

// CheckConsistency verifies that every currency's posted debits equal its
// credits. Single-leg reversals legitimately break this until the
// counterpart legs are reversed too, so an imbalance is a signal to
// investigate, not proof of corruption.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	rows, err := uc.ledgerRepo.TrialBalance(ctx)
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if !row.Balanced() {
			return false, ErrInconsistentLedger
		}
	}

	return true, nil
}
