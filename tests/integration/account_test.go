package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	adaptershttp "github.com/finprim/ledger/internal/adapter/http"
	"github.com/finprim/ledger/internal/adapter/http/dto"
	"github.com/finprim/ledger/internal/adapter/http/handler"
	"github.com/finprim/ledger/internal/adapter/repository/postgres"
	"github.com/finprim/ledger/internal/domain"
	"github.com/finprim/ledger/internal/usecase"
	"github.com/finprim/ledger/tests/testutil"
)

func TestAccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	accountIDGen := postgres.NewUUIDGenerator()

	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, accountIDGen, idGen, nil)
	postingUC := usecase.NewPostingUseCase(txManager, accountRepo, transactionRepo, entryRepo, outboxRepo, idGen, postgres.NewRetrier(), nil)
	reversalUC := usecase.NewReversalUseCase(postingUC, transactionRepo, entryRepo, nil)
	balanceUC := usecase.NewBalanceUseCase(accountRepo, entryRepo, nil)
	ledgerUC := usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool))

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(postingUC, nil),
		ReversalHandler:    handler.NewReversalHandler(reversalUC, nil),
		EntryHandler:       handler.NewEntryHandler(balanceUC, nil, 0),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(pool, nil),
		Logger:             zerolog.Nop(),
	})

	t.Run("create account with valid data", func(t *testing.T) {
		req := dto.CreateAccountRequest{
			OwnerKind:   "customer",
			OwnerID:     "cust-100",
			AccountType: "liability",
			Currency:    "USD",
			Name:        "customer wallet",
		}
		body, _ := json.Marshal(req)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var resp dto.AccountResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.ID == "" {
			t.Error("expected generated account ID")
		}
		if resp.OwnerKind != req.OwnerKind || resp.OwnerID != req.OwnerID {
			t.Errorf("expected owner %s:%s, got %s:%s", req.OwnerKind, req.OwnerID, resp.OwnerKind, resp.OwnerID)
		}
		if resp.AccountType != req.AccountType {
			t.Errorf("expected type %q, got %q", req.AccountType, resp.AccountType)
		}
		if resp.Currency != req.Currency {
			t.Errorf("expected currency %q, got %q", req.Currency, resp.Currency)
		}
		if !resp.Active {
			t.Error("expected new account to be active")
		}

		// A new account has no entries, so its derived balance is zero.
		br := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+resp.ID+"/balance", nil)
		bw := httptest.NewRecorder()
		router.ServeHTTP(bw, br)

		if bw.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, bw.Code, bw.Body.String())
		}
		var balance dto.BalanceResponse
		if err := json.Unmarshal(bw.Body.Bytes(), &balance); err != nil {
			t.Fatalf("failed to parse balance: %v", err)
		}
		if balance.Balance != "0" {
			t.Errorf("expected balance 0, got %s", balance.Balance)
		}
	})

	t.Run("reject lower-case currency", func(t *testing.T) {
		req := dto.CreateAccountRequest{
			OwnerKind:   "customer",
			OwnerID:     "cust-101",
			AccountType: "asset",
			Currency:    "usd",
		}
		body, _ := json.Marshal(req)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
		}
	})

	t.Run("get account by ID", func(t *testing.T) {
		account := testDB.CreateTestAccount(ctx, "get-test", "asset", "EUR")

		r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.AccountResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.ID != account.ID {
			t.Errorf("expected ID %q, got %q", account.ID, resp.ID)
		}
		if resp.Currency != "EUR" {
			t.Errorf("expected currency EUR, got %q", resp.Currency)
		}
	})

	t.Run("get non-existent account returns 404", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/non-existent-id", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("list accounts filtered by owner", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		owner := domain.OwnerRef{Kind: "merchant", ID: "m-1"}
		testDB.CreateTestAccountForOwner(ctx, owner, "settlement", "asset", "USD")
		testDB.CreateTestAccountForOwner(ctx, owner, "fees", "expense", "USD")
		testDB.CreateTestAccount(ctx, "someone-else", "asset", "USD")

		r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/?owner_kind=merchant&owner_id=m-1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.ListAccountsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if len(resp.Accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(resp.Accounts))
		}
		for _, acc := range resp.Accounts {
			if acc.OwnerKind != "merchant" || acc.OwnerID != "m-1" {
				t.Errorf("expected owner merchant:m-1, got %s:%s", acc.OwnerKind, acc.OwnerID)
			}
		}
	})

	t.Run("deactivated account rejects postings until reactivated", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		cash := testDB.CreateTestAccount(ctx, "cash", "asset", "USD")
		revenue := testDB.CreateTestAccount(ctx, "revenue", "revenue", "USD")

		post := func() *httptest.ResponseRecorder {
			req := dto.RecordTransactionRequest{
				Entries: []dto.EntryItem{
					{AccountID: cash.ID, EntryType: "debit", Amount: "25"},
					{AccountID: revenue.ID, EntryType: "credit", Amount: "25"},
				},
			}
			body, _ := json.Marshal(req)
			r := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/", bytes.NewReader(body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)
			return w
		}

		r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/"+cash.ID+"/deactivate", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		if w := post(); w.Code != http.StatusConflict {
			t.Errorf("expected status %d for posting to inactive account, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
		}

		// History stays readable while the account is inactive.
		br := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+cash.ID+"/balance", nil)
		bw := httptest.NewRecorder()
		router.ServeHTTP(bw, br)
		if bw.Code != http.StatusOK {
			t.Errorf("expected status %d reading inactive account balance, got %d", http.StatusOK, bw.Code)
		}

		r = httptest.NewRequest(http.MethodPost, "/api/v1/accounts/"+cash.ID+"/reactivate", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		if w := post(); w.Code != http.StatusCreated {
			t.Errorf("expected status %d after reactivation, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}
	})
}
