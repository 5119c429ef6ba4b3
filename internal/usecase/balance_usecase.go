package usecase

import (
	"context"
	"time"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/infrastructure/metrics"
)

// BalanceUseCase derives balances and reads entries. Every method here is a
// pure read over posted rows; it never coordinates with writers.
type BalanceUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	metrics     *metrics.Metrics
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(accountRepo AccountRepository, entryRepo EntryRepository, m *metrics.Metrics) *BalanceUseCase {
	return &BalanceUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		metrics:     m,
	}
}

// GetBalance returns the account's current balance: debit sum minus credit
// sum over its posted entries.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	return uc.balance(ctx, accountID, nil)
}

// GetBalanceAsOf returns the balance considering only entries effective at
// or before the given time.
func (uc *BalanceUseCase) GetBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (*domain.Balance, error) {
	asOf = asOf.UTC()
	return uc.balance(ctx, accountID, &asOf)
}

func (uc *BalanceUseCase) balance(ctx context.Context, accountID string, asOf *time.Time) (*domain.Balance, error) {
	start := time.Now()

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := domain.Balance{
		AccountID: account.ID,
		Currency:  account.Currency,
		AsOf:      asOf,
	}

	if asOf != nil {
		result.Amount, err = uc.entryRepo.GetBalanceAsOf(ctx, accountID, *asOf)
	} else {
		result.Amount, err = uc.entryRepo.GetBalance(ctx, accountID)
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceQueries.Inc()
		uc.metrics.BalanceQueryDuration.Observe(time.Since(start).Seconds())
	}

	return &result, nil
}

// GetEntry retrieves one entry by ID.
func (uc *BalanceUseCase) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// GetEntriesByTransaction lists the entries of one transaction.
func (uc *BalanceUseCase) GetEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	return uc.entryRepo.GetByTransaction(ctx, transactionID)
}

// ListEntriesByAccountInput represents input for listing entries.
type ListEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListEntriesByAccount lists an account's entries, newest first.
func (uc *BalanceUseCase) ListEntriesByAccount(ctx context.Context, input ListEntriesByAccountInput) ([]*domain.Entry, error) {
	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}
	return uc.entryRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
