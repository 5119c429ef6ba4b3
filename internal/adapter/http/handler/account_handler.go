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

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	ListAccountsForOwner(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error)
	ListAccountsByType(ctx context.Context, accountType string, limit, offset int) ([]*domain.Account, error)
	ListAccountsByCurrency(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error)
	DeactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error)
	ReactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts. Exactly one filter may be applied: owner
// (owner_kind + owner_id), account type, or currency; with no filter all
// accounts are paged through.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	var (
		accounts []*domain.Account
		err      error
	)

	switch {
	case q.Get("owner_kind") != "" || q.Get("owner_id") != "":
		owner := domain.OwnerRef{Kind: q.Get("owner_kind"), ID: q.Get("owner_id")}
		accounts, err = h.accountUC.ListAccountsForOwner(r.Context(), owner, limit, offset)
	case q.Get("type") != "":
		accounts, err = h.accountUC.ListAccountsByType(r.Context(), q.Get("type"), limit, offset)
	case q.Get("currency") != "":
		accounts, err = h.accountUC.ListAccountsByCurrency(r.Context(), q.Get("currency"), limit, offset)
	default:
		accounts, err = h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
			Limit:  limit,
			Offset: offset,
		})
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Deactivate stops an account from accepting new entries. Its history stays
// readable and its balance stays derivable.
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Reactivate re-enables posting against an account.
func (h *AccountHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AccountHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	// The body is optional; it only carries the audit actor.
	var req dto.AccountActionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	var (
		account *domain.Account
		err     error
	)
	if active {
		account, err = h.accountUC.ReactivateAccount(r.Context(), id, req.Actor)
	} else {
		account, err = h.accountUC.DeactivateAccount(r.Context(), id, req.Actor)
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update account state", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
