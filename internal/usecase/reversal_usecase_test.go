package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
	"github.com/finprim/ledger/internal/usecase/mocks"
)

type reversalHarness struct {
	accRepo    *mocks.MockAccountRepository
	txRepo     *mocks.MockTransactionRepository
	entryRepo  *mocks.MockEntryRepository
	outboxRepo *mocks.MockOutboxRepository
	posting    *usecase.PostingUseCase
	uc         *usecase.ReversalUseCase
}

func newReversalHarness(accounts ...[2]string) *reversalHarness {
	h := &reversalHarness{
		accRepo:    mocks.NewMockAccountRepository(),
		txRepo:     mocks.NewMockTransactionRepository(),
		entryRepo:  mocks.NewMockEntryRepository(),
		outboxRepo: mocks.NewMockOutboxRepository(),
	}
	seedAccounts(h.accRepo, accounts...)
	h.posting = usecase.NewPostingUseCase(
		mocks.NewMockTxManager(), h.accRepo, h.txRepo, h.entryRepo, h.outboxRepo,
		mocks.NewMockIDGenerator(), nil, nil,
	)
	h.uc = usecase.NewReversalUseCase(h.posting, h.txRepo, h.entryRepo, nil)
	return h
}

func (h *reversalHarness) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	balance, err := h.entryRepo.GetBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return balance
}

func TestReversalUseCase_ReverseEntry(t *testing.T) {
	h := newReversalHarness([2]string{"receivable", "USD"}, [2]string{"revenue", "USD"})

	original, err := h.posting.RecordTransaction(context.Background(), usecase.RecordTransactionInput{
		Description: "Invoice #55",
		Entries: []usecase.EntryInput{
			debitInput("receivable", "100"),
			creditInput("revenue", "100"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var receivableEntry domain.Entry
	for i := range original.Entries {
		if original.Entries[i].AccountID == "receivable" {
			receivableEntry = original.Entries[i]
		}
	}

	reversal, err := h.uc.ReverseEntry(context.Background(), usecase.ReverseEntryInput{
		EntryID: receivableEntry.ID,
		Reason:  "duplicate invoice",
		Actor:   "user:7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("reversal is a single opposite entry", func(t *testing.T) {
		if len(reversal.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(reversal.Entries))
		}
		e := reversal.Entries[0]
		if e.Type != domain.EntryTypeCredit {
			t.Errorf("expected credit, got %s", e.Type)
		}
		if e.AccountID != "receivable" {
			t.Errorf("expected account receivable, got %s", e.AccountID)
		}
		if !e.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected amount 100, got %s", e.Amount)
		}
		if e.ReversesID == nil || *e.ReversesID != receivableEntry.ID {
			t.Errorf("expected reverses_id %s, got %v", receivableEntry.ID, e.ReversesID)
		}
		if e.Metadata["reverses_entry_id"] != receivableEntry.ID {
			t.Errorf("expected reverses_entry_id in metadata, got %v", e.Metadata["reverses_entry_id"])
		}
		if e.Metadata["reason"] != "duplicate invoice" {
			t.Errorf("expected reason in metadata, got %v", e.Metadata["reason"])
		}
	})

	t.Run("reversal transaction carries reason and actor", func(t *testing.T) {
		if reversal.Description != "Reversal: duplicate invoice" {
			t.Errorf("unexpected description %q", reversal.Description)
		}
		if reversal.Actor() != "user:7" {
			t.Errorf("expected actor user:7, got %q", reversal.Actor())
		}
	})

	t.Run("original rows untouched", func(t *testing.T) {
		stored, err := h.entryRepo.GetByID(context.Background(), receivableEntry.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Type != domain.EntryTypeDebit || !stored.Amount.Equal(decimal.NewFromInt(100)) {
			t.Error("expected original entry to keep its type and amount")
		}
	})

	t.Run("net effect zero on the reversed account only", func(t *testing.T) {
		if got := h.balance(t, "receivable"); !got.IsZero() {
			t.Errorf("expected receivable balance 0, got %s", got)
		}
		if got := h.balance(t, "revenue"); !got.Equal(decimal.NewFromInt(-100)) {
			t.Errorf("expected revenue balance -100, got %s", got)
		}
	})

	t.Run("emits entry reversed event", func(t *testing.T) {
		events := h.outboxRepo.Events()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		event := events[1]
		if event.EventType != domain.EventTypeEntryReversed {
			t.Errorf("expected event type %s, got %s", domain.EventTypeEntryReversed, event.EventType)
		}
		if event.Payload["reversed_entry_id"] != receivableEntry.ID {
			t.Errorf("expected reversed_entry_id in payload, got %v", event.Payload["reversed_entry_id"])
		}
		if event.Payload["reason"] != "duplicate invoice" {
			t.Errorf("expected reason in payload, got %v", event.Payload["reason"])
		}
	})

	t.Run("reversal entry can itself be reversed", func(t *testing.T) {
		again, err := h.uc.ReverseEntry(context.Background(), usecase.ReverseEntryInput{
			EntryID: reversal.Entries[0].ID,
			Reason:  "reversed in error",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Entries[0].Type != domain.EntryTypeDebit {
			t.Errorf("expected debit, got %s", again.Entries[0].Type)
		}
		if got := h.balance(t, "receivable"); !got.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected receivable balance restored to 100, got %s", got)
		}
	})
}

func TestReversalUseCase_ReverseEntry_NotFound(t *testing.T) {
	h := newReversalHarness([2]string{"cash", "USD"})

	_, err := h.uc.ReverseEntry(context.Background(), usecase.ReverseEntryInput{
		EntryID: "missing",
		Reason:  "whatever",
	})
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if events := h.outboxRepo.Events(); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestReversalUseCase_ReverseTransaction(t *testing.T) {
	h := newReversalHarness([2]string{"cash", "USD"}, [2]string{"revenue", "USD"}, [2]string{"tax", "USD"})

	original, err := h.posting.RecordTransaction(context.Background(), usecase.RecordTransactionInput{
		Description: "Sale #9",
		Entries: []usecase.EntryInput{
			debitInput("cash", "120"),
			creditInput("revenue", "100"),
			creditInput("tax", "20"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reversal, err := h.uc.ReverseTransaction(context.Background(), usecase.ReverseTransactionInput{
		TransactionID: original.ID,
		Reason:        "order cancelled",
		Actor:         "user:3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("every leg negated", func(t *testing.T) {
		if len(reversal.Entries) != len(original.Entries) {
			t.Fatalf("expected %d entries, got %d", len(original.Entries), len(reversal.Entries))
		}
		originals := make(map[string]domain.Entry, len(original.Entries))
		for i := range original.Entries {
			originals[original.Entries[i].ID] = original.Entries[i]
		}
		for i := range reversal.Entries {
			e := reversal.Entries[i]
			if e.ReversesID == nil {
				t.Fatal("expected every reversal entry to reference an original")
			}
			orig, ok := originals[*e.ReversesID]
			if !ok {
				t.Fatalf("reversal references unknown entry %s", *e.ReversesID)
			}
			if e.Type != orig.Type.Opposite() {
				t.Errorf("expected opposite of %s, got %s", orig.Type, e.Type)
			}
			if e.AccountID != orig.AccountID || !e.Amount.Equal(orig.Amount) {
				t.Error("expected reversal to mirror account and amount")
			}
		}
	})

	t.Run("all balances return to zero", func(t *testing.T) {
		for _, accountID := range []string{"cash", "revenue", "tax"} {
			if got := h.balance(t, accountID); !got.IsZero() {
				t.Errorf("expected %s balance 0, got %s", accountID, got)
			}
		}
	})

	t.Run("emits transaction reversed event", func(t *testing.T) {
		events := h.outboxRepo.Events()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		event := events[1]
		if event.EventType != domain.EventTypeTransactionReversed {
			t.Errorf("expected event type %s, got %s", domain.EventTypeTransactionReversed, event.EventType)
		}
		if event.Payload["reversed_transaction_id"] != original.ID {
			t.Errorf("expected reversed_transaction_id in payload, got %v", event.Payload["reversed_transaction_id"])
		}
	})
}

func TestReversalUseCase_ReverseTransaction_NotFound(t *testing.T) {
	h := newReversalHarness([2]string{"cash", "USD"})

	_, err := h.uc.ReverseTransaction(context.Background(), usecase.ReverseTransactionInput{
		TransactionID: "missing",
		Reason:        "whatever",
	})
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}
