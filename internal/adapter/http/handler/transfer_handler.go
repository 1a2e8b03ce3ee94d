package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanbank/tanbank/internal/adapter/http/dto"
	"github.com/tanbank/tanbank/internal/usecase"
)

// TransferHandler handles two-phase transfer HTTP requests.
type TransferHandler struct {
	transferUC *usecase.TransferUseCase

	// debugDelivery echoes the raw TAN code in the initiation response
	// instead of sending it over a delivery channel. Development only.
	debugDelivery bool
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC *usecase.TransferUseCase, debugDelivery bool) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, debugDelivery: debugDelivery}
}

// Initiate starts a transfer and issues a TAN challenge.
func (h *TransferHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.InitiateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transferUC.Initiate(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to initiate transfer", err.Error())
		return
	}

	resp := dto.InitiateTransferResponse{
		Transfer:  dto.TransferFromDomain(result.Transfer),
		Challenge: dto.ChallengeFromDomain(result.Challenge),
	}
	if h.debugDelivery {
		resp.DebugCode = result.Code
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Execute verifies a TAN code and settles the pending transfer.
func (h *TransferHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	transferID := chi.URLParam(r, "id")
	if transferID == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	var req dto.ExecuteTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := h.transferUC.Execute(r.Context(), req.ToUseCaseInput(transferID, user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to execute transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer initiated by the authenticated user.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// List lists transfers initiated by the authenticated user.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	transfers, err := h.transferUC.ListTransfers(r.Context(), usecase.ListTransfersInput{
		UserID: user.ID,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}
