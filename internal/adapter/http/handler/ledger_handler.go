package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	TrialBalance(ctx context.Context) ([]domain.TrialBalanceRow, error)
	CheckConsistency(ctx context.Context) (bool, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// TrialBalance returns per-currency debit/credit totals over all posted
// entries.
func (h *LedgerHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledgerUC.TrialBalance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute trial balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromDomain(rows))
}

// CheckConsistency verifies that debits equal credits across the whole
// ledger. An inconsistent ledger answers 409 rather than an error status:
// the check itself succeeded.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	consistent, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"status":     "inconsistent",
				"consistent": false,
				"message":    err.Error(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "consistent",
		"consistent": consistent,
	})
}
