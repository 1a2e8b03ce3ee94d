package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/adapter/http/dto"
	"github.com/tanbank/tanbank/internal/adapter/repository/memory"
	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
	"github.com/tanbank/tanbank/internal/usecase/mocks"
)

func newTransferHandler(t *testing.T) (*TransferHandler, *memory.AccountRepository) {
	t.Helper()

	store := memory.NewStore()
	accountRepo := memory.NewAccountRepository(store)
	transferRepo := memory.NewTransferRepository(store)
	tanRepo := memory.NewTANChallengeRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	idGen := &mocks.MockIDGenerator{}

	tanManager := usecase.NewTANManager(store, tanRepo, transferRepo, idGen, usecase.TANConfig{
		CodeLength:  6,
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
	}, zerolog.Nop())

	transferUC := usecase.NewTransferUseCase(store, memory.Retrier{}, accountRepo, transferRepo, entryRepo, tanManager, idGen, nil)

	return NewTransferHandler(transferUC, true), accountRepo
}

func seedAccounts(t *testing.T, repo *memory.AccountRepository) {
	t.Helper()

	accounts := []*domain.Account{
		{
			ID:       "acc-1",
			OwnerID:  "user-1",
			Type:     domain.AccountTypeChecking,
			Number:   "DE89370400440532013000",
			Currency: "EUR",
			Balance:  decimal.RequireFromString("500.00"),
		},
		{
			ID:       "acc-2",
			OwnerID:  "user-2",
			Type:     domain.AccountTypeChecking,
			Number:   "DE02120300000000202051",
			Currency: "EUR",
			Balance:  decimal.RequireFromString("100.00"),
		},
	}
	for _, a := range accounts {
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("failed to seed account: %v", err)
		}
	}
}

// asUser attaches an authenticated user to the request context.
func asUser(r *http.Request, userID string) *http.Request {
	ctx := domain.ContextWithUser(r.Context(), &domain.User{ID: userID})
	return r.WithContext(ctx)
}

// withChiParam attaches a chi URL parameter to the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func initiateTransfer(t *testing.T, h *TransferHandler) dto.InitiateTransferResponse {
	t.Helper()

	body, _ := json.Marshal(dto.InitiateTransferRequest{
		FromAccountID: "acc-1",
		RecipientRef:  "acc-2",
		Amount:        decimal.RequireFromString("150.00"),
		Currency:      "EUR",
		Memo:          "rent",
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	h.Initiate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.InitiateTransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestTransferHandler_Initiate_Success(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	resp := initiateTransfer(t, h)

	if resp.Transfer.Status != string(domain.TransferStatusTANPending) {
		t.Fatalf("expected tan_pending status, got %s", resp.Transfer.Status)
	}

	if resp.Challenge == nil || resp.Challenge.TransferID != resp.Transfer.ID {
		t.Fatalf("expected challenge bound to transfer, got %+v", resp.Challenge)
	}

	if len(resp.DebugCode) != 6 {
		t.Fatalf("expected 6-digit debug code, got %q", resp.DebugCode)
	}
}

func TestTransferHandler_Initiate_InvalidBody(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString("{bad json")), "user-1")
	rec := httptest.NewRecorder()

	h.Initiate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransferHandler_Initiate_Unauthenticated(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()

	h.Initiate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTransferHandler_Initiate_InsufficientFunds(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	body, _ := json.Marshal(dto.InitiateTransferRequest{
		FromAccountID: "acc-1",
		RecipientRef:  "acc-2",
		Amount:        decimal.RequireFromString("9999.00"),
		Currency:      "EUR",
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	h.Initiate(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTransferHandler_Execute_Success(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	initiated := initiateTransfer(t, h)

	body, _ := json.Marshal(dto.ExecuteTransferRequest{
		Code: initiated.DebugCode,
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/"+initiated.Transfer.ID+"/execute", bytes.NewReader(body)), "user-1")
	req = withChiParam(req, "id", initiated.Transfer.ID)
	rec := httptest.NewRecorder()

	h.Execute(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != string(domain.TransferStatusExecuted) {
		t.Fatalf("expected executed status, got %s", resp.Status)
	}

	if resp.ExecutedAt == nil {
		t.Fatalf("expected executed_at to be set")
	}
}

func TestTransferHandler_Execute_WrongCode(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	initiated := initiateTransfer(t, h)

	body, _ := json.Marshal(dto.ExecuteTransferRequest{
		Code: "000000",
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/"+initiated.Transfer.ID+"/execute", bytes.NewReader(body)), "user-1")
	req = withChiParam(req, "id", initiated.Transfer.ID)
	rec := httptest.NewRecorder()

	h.Execute(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTransferHandler_List(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	initiated := initiateTransfer(t, h)

	req := asUser(httptest.NewRequest(http.MethodGet, "/transfers", nil), "user-1")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []*dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp) != 1 || resp[0].ID != initiated.Transfer.ID {
		t.Fatalf("expected the initiated transfer, got %+v", resp)
	}

	// The recipient did not send anything and sees an empty list.
	req = asUser(httptest.NewRequest(http.MethodGet, "/transfers", nil), "user-2")
	rec = httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var other []*dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &other); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(other) != 0 {
		t.Fatalf("expected no transfers for user-2, got %d", len(other))
	}
}

func TestTransferHandler_Get_NotFound(t *testing.T) {
	h, accountRepo := newTransferHandler(t)
	seedAccounts(t, accountRepo)

	req := asUser(httptest.NewRequest(http.MethodGet, "/transfers/missing", nil), "user-1")
	req = withChiParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
