package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tanbank/tanbank/internal/adapter/http/dto"
	"github.com/tanbank/tanbank/internal/usecase"
)

// P2PHandler handles single-phase peer-to-peer transfers.
type P2PHandler struct {
	p2pUC *usecase.P2PUseCase
}

// NewP2PHandler creates a new P2PHandler.
func NewP2PHandler(p2pUC *usecase.P2PUseCase) *P2PHandler {
	return &P2PHandler{p2pUC: p2pUC}
}

// Transfer moves money between two users' checking accounts without a TAN.
func (h *P2PHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.P2PTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := h.p2pUC.Transfer(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}
