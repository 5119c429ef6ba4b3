package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

// ReversalService defines the behavior needed by ReversalHandler.
type ReversalService interface {
	ReverseEntry(ctx context.Context, input usecase.ReverseEntryInput) (*domain.Transaction, error)
	ReverseTransaction(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error)
}

// ReversalHandler handles reversal HTTP requests. Reversals are the only
// correction path; both endpoints return the new reversal transaction.
type ReversalHandler struct {
	reversalUC ReversalService
	cache      usecase.Cache
}

// NewReversalHandler creates a new ReversalHandler. cache may be nil.
func NewReversalHandler(reversalUC ReversalService, cache usecase.Cache) *ReversalHandler {
	return &ReversalHandler{reversalUC: reversalUC, cache: cache}
}

// ReverseEntry posts a transaction negating a single entry.
func (h *ReversalHandler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.ReverseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	reversal, err := h.reversalUC.ReverseEntry(r.Context(), req.ToUseCaseInput(entryID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse entry", err.Error())
		return
	}

	invalidateBalances(r.Context(), h.cache, reversal)
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(reversal))
}

// ReverseTransaction posts a balanced transaction negating every entry of a
// posted transaction.
func (h *ReversalHandler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ReverseTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	reversal, err := h.reversalUC.ReverseTransaction(r.Context(), req.ToUseCaseInput(transactionID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse transaction", err.Error())
		return
	}

	invalidateBalances(r.Context(), h.cache, reversal)
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(reversal))
}
