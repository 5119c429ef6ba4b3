package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
	"github.com/finprim/ledger/internal/usecase/mocks"
)

func newAccountUseCase() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockOutboxRepository) {
	accRepo := mocks.NewMockAccountRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	uc := usecase.NewAccountUseCase(
		mocks.NewMockTxManager(), accRepo, outboxRepo,
		mocks.NewMockIDGeneratorWithPrefix("acc"),
		mocks.NewMockIDGeneratorWithPrefix("evt"),
		nil,
	)
	return uc, accRepo, outboxRepo
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	tests := []struct {
		name           string
		input          usecase.CreateAccountInput
		expectCurrency string
		expectName     string
		expectError    bool
		errorType      error
	}{
		{
			name: "valid account",
			input: usecase.CreateAccountInput{
				OwnerKind: "customer",
				OwnerID:   "cust-1",
				Type:      "asset",
				Currency:  "USD",
				Name:      "Cash",
			},
			expectCurrency: "USD",
			expectName:     "Cash",
		},
		{
			name: "normalizes whitespace and currency case",
			input: usecase.CreateAccountInput{
				OwnerKind: " customer ",
				OwnerID:   " cust-1 ",
				Type:      "asset",
				Currency:  " usd ",
				Name:      "  Cash  ",
			},
			expectCurrency: "USD",
			expectName:     "Cash",
		},
		{
			name: "unknown type rejected",
			input: usecase.CreateAccountInput{
				OwnerKind: "merchant",
				OwnerID:   "m-9",
				Type:      "pending_settlement",
				Currency:  "EUR",
				Name:      "Settlement holding",
			},
			expectError: true,
			errorType:   domain.ErrInvalidAccountType,
		},
		{
			name: "missing owner",
			input: usecase.CreateAccountInput{
				Type:     "asset",
				Currency: "USD",
				Name:     "Cash",
			},
			expectError: true,
			errorType:   domain.ErrInvalidOwnerRef,
		},
		{
			name: "unknown currency",
			input: usecase.CreateAccountInput{
				OwnerKind: "customer",
				OwnerID:   "cust-1",
				Type:      "asset",
				Currency:  "ZZZ",
				Name:      "Cash",
			},
			expectError: true,
			errorType:   domain.ErrInvalidCurrency,
		},
		{
			name: "uppercase type rejected",
			input: usecase.CreateAccountInput{
				OwnerKind: "customer",
				OwnerID:   "cust-1",
				Type:      "Asset",
				Currency:  "USD",
				Name:      "Cash",
			},
			expectError: true,
			errorType:   domain.ErrInvalidAccountType,
		},
		{
			name: "name is optional",
			input: usecase.CreateAccountInput{
				OwnerKind: "customer",
				OwnerID:   "cust-1",
				Type:      "asset",
				Currency:  "USD",
			},
			expectCurrency: "USD",
			expectName:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _, outboxRepo := newAccountUseCase()

			account, err := uc.CreateAccount(context.Background(), tt.input)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorType != nil && !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				if events := outboxRepo.Events(); len(events) != 0 {
					t.Errorf("expected no events, got %d", len(events))
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !account.Active {
				t.Error("expected new account to be active")
			}
			if account.Name != tt.expectName {
				t.Errorf("expected name %q, got %q", tt.expectName, account.Name)
			}
			if account.Currency != tt.expectCurrency {
				t.Errorf("expected currency %q, got %q", tt.expectCurrency, account.Currency)
			}
			if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
				t.Error("expected timestamps to be set")
			}

			events := outboxRepo.Events()
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].EventType != domain.EventTypeAccountCreated {
				t.Errorf("expected event type %s, got %s", domain.EventTypeAccountCreated, events[0].EventType)
			}
			if events[0].AggregateID != account.ID {
				t.Errorf("expected aggregate id %s, got %s", account.ID, events[0].AggregateID)
			}
		})
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	uc, accRepo, _ := newAccountUseCase()
	accRepo.Seed(&domain.Account{ID: "acc-1", Currency: "USD", Active: true})

	t.Run("get existing account", func(t *testing.T) {
		account, err := uc.GetAccount(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.ID != "acc-1" {
			t.Errorf("expected ID acc-1, got %s", account.ID)
		}
	})

	t.Run("get non-existent account", func(t *testing.T) {
		_, err := uc.GetAccount(context.Background(), "missing")
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestAccountUseCase_DeactivateReactivate(t *testing.T) {
	uc, accRepo, outboxRepo := newAccountUseCase()
	accRepo.Seed(&domain.Account{ID: "acc-1", Currency: "USD", Active: true})

	t.Run("deactivate", func(t *testing.T) {
		account, err := uc.DeactivateAccount(context.Background(), "acc-1", "admin:1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Active {
			t.Error("expected account to be inactive")
		}

		events := outboxRepo.Events()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].EventType != domain.EventTypeAccountDeactivated {
			t.Errorf("expected event type %s, got %s", domain.EventTypeAccountDeactivated, events[0].EventType)
		}
		if events[0].Payload["actor"] != "admin:1" {
			t.Errorf("expected actor in payload, got %v", events[0].Payload["actor"])
		}
	})

	t.Run("deactivate is idempotent", func(t *testing.T) {
		account, err := uc.DeactivateAccount(context.Background(), "acc-1", "admin:1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Active {
			t.Error("expected account to stay inactive")
		}
		if events := outboxRepo.Events(); len(events) != 1 {
			t.Errorf("expected no extra event on no-op, got %d", len(events))
		}
	})

	t.Run("reactivate", func(t *testing.T) {
		account, err := uc.ReactivateAccount(context.Background(), "acc-1", "admin:2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !account.Active {
			t.Error("expected account to be active")
		}

		events := outboxRepo.Events()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[1].EventType != domain.EventTypeAccountReactivated {
			t.Errorf("expected event type %s, got %s", domain.EventTypeAccountReactivated, events[1].EventType)
		}
	})

	t.Run("deactivate unknown account", func(t *testing.T) {
		_, err := uc.DeactivateAccount(context.Background(), "missing", "admin:1")
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestAccountUseCase_Listing(t *testing.T) {
	uc, accRepo, _ := newAccountUseCase()
	accRepo.Seed(
		&domain.Account{ID: "a1", Owner: domain.OwnerRef{Kind: "customer", ID: "c1"}, Type: "asset", Currency: "USD", Active: true},
		&domain.Account{ID: "a2", Owner: domain.OwnerRef{Kind: "customer", ID: "c1"}, Type: "revenue", Currency: "USD", Active: true},
		&domain.Account{ID: "a3", Owner: domain.OwnerRef{Kind: "merchant", ID: "m1"}, Type: "asset", Currency: "EUR", Active: true},
	)

	t.Run("list all", func(t *testing.T) {
		accounts, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 3 {
			t.Errorf("expected 3 accounts, got %d", len(accounts))
		}
	})

	t.Run("list by owner", func(t *testing.T) {
		accounts, err := uc.ListAccountsForOwner(context.Background(), domain.OwnerRef{Kind: "customer", ID: "c1"}, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}
	})

	t.Run("list by owner rejects blank ref", func(t *testing.T) {
		_, err := uc.ListAccountsForOwner(context.Background(), domain.OwnerRef{}, 0, 0)
		if !errors.Is(err, domain.ErrInvalidOwnerRef) {
			t.Fatalf("expected ErrInvalidOwnerRef, got %v", err)
		}
	})

	t.Run("list by type", func(t *testing.T) {
		accounts, err := uc.ListAccountsByType(context.Background(), "asset", 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}
	})

	t.Run("list by currency normalizes case", func(t *testing.T) {
		accounts, err := uc.ListAccountsByCurrency(context.Background(), "eur", 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(accounts) != 1 {
			t.Errorf("expected 1 account, got %d", len(accounts))
		}
	})
}
