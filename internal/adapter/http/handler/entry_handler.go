package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

// BalanceService defines the behavior needed by EntryHandler.
type BalanceService interface {
	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)
	GetBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (*domain.Balance, error)
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	GetEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	ListEntriesByAccount(ctx context.Context, input usecase.ListEntriesByAccountInput) ([]*domain.Entry, error)
}

// EntryHandler serves the read side: entries and derived balances.
type EntryHandler struct {
	balanceUC BalanceService
	cache     usecase.Cache
	cacheTTL  time.Duration
}

// NewEntryHandler creates a new EntryHandler. cache may be nil; when set,
// current-balance responses are cached for cacheTTL and dropped by the
// posting handlers, so staleness is bounded by the TTL even if a delete is
// lost. As-of reads are never cached.
func NewEntryHandler(balanceUC BalanceService, cache usecase.Cache, cacheTTL time.Duration) *EntryHandler {
	return &EntryHandler{
		balanceUC: balanceUC,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// GetBalance returns the derived balance of an account, optionally as of a
// point in business time (?as_of=RFC3339, inclusive).
func (h *EntryHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	asOf, err := parseTimeQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'as_of' format (use RFC3339)", err.Error())
		return
	}

	if asOf != nil {
		balance, err := h.balanceUC.GetBalanceAsOf(r.Context(), accountID, *asOf)
		if err != nil {
			writeError(w, mapDomainError(err), "failed to get balance", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
		return
	}

	key := balanceCacheKey(accountID)
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	balance, err := h.balanceUC.GetBalance(r.Context(), accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	resp := dto.BalanceFromDomain(balance)
	if h.cache != nil {
		if body, err := json.Marshal(resp); err == nil {
			_ = h.cache.Set(r.Context(), key, body, h.cacheTTL)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get retrieves a single entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.balanceUC.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ListByAccount lists an account's entries, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	entries, err := h.balanceUC.ListEntriesByAccount(r.Context(), usecase.ListEntriesByAccountInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// ListByTransaction lists the entries of one transaction.
func (h *EntryHandler) ListByTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	entries, err := h.balanceUC.GetEntriesByTransaction(r.Context(), transactionID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
