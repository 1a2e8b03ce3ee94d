package handler

import (
	"net/http"

	"github.com/tanbank/tanbank/internal/adapter/http/dto"
	"github.com/tanbank/tanbank/internal/usecase"
)

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckConsistency verifies that all ledger entries sum to zero.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromResult(result))
}
