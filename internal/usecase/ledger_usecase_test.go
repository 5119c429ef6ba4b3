package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
	"github.com/finprim/ledger/internal/usecase/mocks"
)

func TestLedgerUseCase_TrialBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)

	rows := []domain.TrialBalanceRow{
		{Currency: "USD", Debits: decimal.NewFromInt(300), Credits: decimal.NewFromInt(300)},
		{Currency: "EUR", Debits: decimal.NewFromInt(50), Credits: decimal.NewFromInt(50)},
	}
	ledgerRepo.EXPECT().TrialBalance(gomock.Any()).Return(rows, nil)

	uc := usecase.NewLedgerUseCase(ledgerRepo)

	got, err := uc.TrialBalance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	for _, row := range got {
		if !row.Balanced() {
			t.Errorf("expected %s row to balance", row.Currency)
		}
	}
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		rows        []domain.TrialBalanceRow
		repoErr     error
		expectOK    bool
		expectError bool
		errorType   error
	}{
		{
			name: "balanced ledger",
			rows: []domain.TrialBalanceRow{
				{Currency: "USD", Debits: decimal.NewFromInt(100), Credits: decimal.NewFromInt(100)},
			},
			expectOK: true,
		},
		{
			name:     "empty ledger is consistent",
			rows:     nil,
			expectOK: true,
		},
		{
			name: "imbalance detected",
			rows: []domain.TrialBalanceRow{
				{Currency: "USD", Debits: decimal.NewFromInt(100), Credits: decimal.NewFromInt(100)},
				{Currency: "EUR", Debits: decimal.NewFromInt(80), Credits: decimal.NewFromInt(30)},
			},
			expectOK:    false,
			expectError: true,
			errorType:   usecase.ErrInconsistentLedger,
		},
		{
			name:        "repository failure surfaces",
			repoErr:     errors.New("connection refused"),
			expectOK:    false,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
			ledgerRepo.EXPECT().TrialBalance(gomock.Any()).Return(tt.rows, tt.repoErr)

			uc := usecase.NewLedgerUseCase(ledgerRepo)

			ok, err := uc.CheckConsistency(context.Background())
			if ok != tt.expectOK {
				t.Errorf("expected ok=%v, got %v", tt.expectOK, ok)
			}
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorType != nil && !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
