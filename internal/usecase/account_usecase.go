package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	eventIDGen  IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. idGen mints account IDs
// (opaque, non-sequential); eventIDGen mints outbox event IDs.
func NewAccountUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	eventIDGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		eventIDGen:  eventIDGen,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerKind     string
	OwnerID       string
	Type          string
	Currency      string
	Name          string
	AccountNumber string
}

// CreateAccount creates a new account. Type and currency are fixed for the
// account's lifetime; there is no update operation for them.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()

	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		Owner:         domain.OwnerRef{Kind: strings.TrimSpace(input.OwnerKind), ID: strings.TrimSpace(input.OwnerID)},
		Type:          domain.AccountType(strings.TrimSpace(input.Type)),
		Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		Name:          strings.TrimSpace(input.Name),
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.eventIDGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountCreated,
		Payload: map[string]any{
			"account_id": account.ID,
			"owner_kind": account.Owner.Kind,
			"owner_id":   account.Owner.ID,
			"type":       string(account.Type),
			"currency":   account.Currency,
			"name":       account.Name,
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.List(ctx, limit, offset)
}

// ListAccountsForOwner lists an owner's accounts.
func (uc *AccountUseCase) ListAccountsForOwner(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByOwner(ctx, owner, limit, offset)
}

// ListAccountsByType lists accounts of one type.
func (uc *AccountUseCase) ListAccountsByType(ctx context.Context, accountType string, limit, offset int) ([]*domain.Account, error) {
	if err := domain.ValidateAccountType(accountType); err != nil {
		return nil, err
	}
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByType(ctx, domain.AccountType(accountType), limit, offset)
}

// ListAccountsByCurrency lists accounts in one currency.
func (uc *AccountUseCase) ListAccountsByCurrency(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByCurrency(ctx, currency, limit, offset)
}

// DeactivateAccount stops an account from receiving new entries. History
// stays readable and balances stay derivable.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error) {
	return uc.setActive(ctx, id, actor, false)
}

// ReactivateAccount re-enables postings against an account.
func (uc *AccountUseCase) ReactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error) {
	return uc.setActive(ctx, id, actor, true)
}

func (uc *AccountUseCase) setActive(ctx context.Context, id, actor string, active bool) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.Active == active {
		return account, nil
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.SetActive(ctx, tx, id, active, now); err != nil {
		return nil, err
	}

	eventType := domain.EventTypeAccountDeactivated
	if active {
		eventType = domain.EventTypeAccountReactivated
	}

	event := &domain.OutboxEvent{
		ID:            uc.eventIDGen.Generate(),
		AggregateID:   id,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id": id,
			"active":     active,
			"actor":      actor,
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		op := "deactivate"
		if active {
			op = "reactivate"
		}
		uc.metrics.AccountOperations.WithLabelValues(op).Inc()
	}

	account.Active = active
	account.UpdatedAt = now

	return account, nil
}
