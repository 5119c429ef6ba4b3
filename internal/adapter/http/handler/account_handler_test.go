package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
)

type accountServiceStub struct {
	createFn         func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn            func(ctx context.Context, id string) (*domain.Account, error)
	listFn           func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	listForOwnerFn   func(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error)
	listByTypeFn     func(ctx context.Context, accountType string, limit, offset int) ([]*domain.Account, error)
	listByCurrencyFn func(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error)
	deactivateFn     func(ctx context.Context, id, actor string) (*domain.Account, error)
	reactivateFn     func(ctx context.Context, id, actor string) (*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	if s.createFn == nil {
		return &domain.Account{}, nil
	}
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if s.getFn == nil {
		return &domain.Account{ID: id}, nil
	}
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, input)
}

func (s *accountServiceStub) ListAccountsForOwner(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error) {
	if s.listForOwnerFn == nil {
		return nil, nil
	}
	return s.listForOwnerFn(ctx, owner, limit, offset)
}

func (s *accountServiceStub) ListAccountsByType(ctx context.Context, accountType string, limit, offset int) ([]*domain.Account, error) {
	if s.listByTypeFn == nil {
		return nil, nil
	}
	return s.listByTypeFn(ctx, accountType, limit, offset)
}

func (s *accountServiceStub) ListAccountsByCurrency(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error) {
	if s.listByCurrencyFn == nil {
		return nil, nil
	}
	return s.listByCurrencyFn(ctx, currency, limit, offset)
}

func (s *accountServiceStub) DeactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error) {
	if s.deactivateFn == nil {
		return &domain.Account{ID: id}, nil
	}
	return s.deactivateFn(ctx, id, actor)
}

func (s *accountServiceStub) ReactivateAccount(ctx context.Context, id, actor string) (*domain.Account, error) {
	if s.reactivateFn == nil {
		return &domain.Account{ID: id, Active: true}, nil
	}
	return s.reactivateFn(ctx, id, actor)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:       "acc-1",
		Owner:    domain.OwnerRef{Kind: "customer", ID: "cust-9"},
		Type:     domain.AccountTypeAsset,
		Currency: "USD",
		Name:     "Cash",
		Active:   true,
	}

	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		OwnerKind:   "customer",
		OwnerID:     "cust-9",
		AccountType: "asset",
		Currency:    "USD",
		Name:        "Cash",
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.OwnerKind != "customer" || captured.OwnerID != "cust-9" || captured.Currency != "USD" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || !resp.Active || resp.AccountType != "asset" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_ValidationFailure(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called when validation fails")
			return nil, nil
		},
	})

	// Lower-case currency: the API requires upper-case ISO 4217 codes.
	body, _ := json.Marshal(dto.CreateAccountRequest{
		OwnerKind:   "customer",
		OwnerID:     "cust-9",
		AccountType: "asset",
		Currency:    "usd",
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Details["Currency"] == "" {
		t.Fatalf("expected currency detail, got %+v", resp.Details)
	}
}

func TestAccountHandler_Create_DomainError(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrInvalidAccountType
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		OwnerKind:   "customer",
		OwnerID:     "cust-9",
		AccountType: "Asset Account",
		Currency:    "USD",
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for domain validation error, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_ServiceError(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, errors.New("db error")
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		OwnerKind:   "customer",
		OwnerID:     "cust-9",
		AccountType: "asset",
		Currency:    "USD",
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	account := &domain.Account{ID: "acc-1", Name: "Cash"}
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			if id != "acc-1" {
				t.Fatalf("expected id acc-1, got %s", id)
			}
			return account, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			if input.Limit != 5 || input.Offset != 2 {
				t.Fatalf("expected limit=5 offset=2, got %+v", input)
			}
			return []*domain.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=5&offset=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Accounts) != 2 || resp.Total != 2 {
		t.Fatalf("expected 2 accounts, got %+v", resp)
	}
}

func TestAccountHandler_List_Filters(t *testing.T) {
	t.Run("by owner", func(t *testing.T) {
		handler := NewAccountHandler(&accountServiceStub{
			listForOwnerFn: func(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error) {
				if owner.Kind != "customer" || owner.ID != "cust-9" {
					t.Fatalf("unexpected owner filter: %+v", owner)
				}
				return []*domain.Account{{ID: "acc-1"}}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/accounts?owner_kind=customer&owner_id=cust-9", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("by type", func(t *testing.T) {
		var gotType string
		handler := NewAccountHandler(&accountServiceStub{
			listByTypeFn: func(ctx context.Context, accountType string, limit, offset int) ([]*domain.Account, error) {
				gotType = accountType
				return nil, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/accounts?type=liability", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusOK || gotType != "liability" {
			t.Fatalf("expected type filter to dispatch, got code=%d type=%q", rec.Code, gotType)
		}
	})

	t.Run("by currency", func(t *testing.T) {
		var gotCurrency string
		handler := NewAccountHandler(&accountServiceStub{
			listByCurrencyFn: func(ctx context.Context, currency string, limit, offset int) ([]*domain.Account, error) {
				gotCurrency = currency
				return nil, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/accounts?currency=EUR", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusOK || gotCurrency != "EUR" {
			t.Fatalf("expected currency filter to dispatch, got code=%d currency=%q", rec.Code, gotCurrency)
		}
	})

	t.Run("owner filter rejected by service", func(t *testing.T) {
		handler := NewAccountHandler(&accountServiceStub{
			listForOwnerFn: func(ctx context.Context, owner domain.OwnerRef, limit, offset int) ([]*domain.Account, error) {
				return nil, domain.ErrInvalidOwnerRef
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/accounts?owner_kind=customer", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for half an owner reference, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_DeactivateReactivate(t *testing.T) {
	var deactivatedID, gotActor string
	handler := NewAccountHandler(&accountServiceStub{
		deactivateFn: func(ctx context.Context, id, actor string) (*domain.Account, error) {
			deactivatedID, gotActor = id, actor
			return &domain.Account{ID: id, Active: false}, nil
		},
		reactivateFn: func(ctx context.Context, id, actor string) (*domain.Account, error) {
			return &domain.Account{ID: id, Active: true}, nil
		},
	})

	body := bytes.NewBufferString(`{"actor":"ops:jane"}`)
	req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/deactivate", body), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Deactivate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deactivatedID != "acc-1" || gotActor != "ops:jane" {
		t.Fatalf("expected id and actor to reach the service, got id=%q actor=%q", deactivatedID, gotActor)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Active {
		t.Fatal("expected account to be inactive in response")
	}

	// Reactivate without a body: the actor is optional.
	req = setChiURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/reactivate", nil), "id", "acc-1")
	rec = httptest.NewRecorder()

	handler.Reactivate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Deactivate_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		deactivateFn: func(ctx context.Context, id, actor string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/accounts/ghost/deactivate", nil), "id", "ghost")
	rec := httptest.NewRecorder()

	handler.Deactivate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
