package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanbank/tanbank/internal/adapter/http/dto"
	"github.com/tanbank/tanbank/internal/usecase"
)

// StandingOrderHandler handles standing order HTTP requests.
type StandingOrderHandler struct {
	orderUC *usecase.StandingOrderUseCase
}

// NewStandingOrderHandler creates a new StandingOrderHandler.
func NewStandingOrderHandler(orderUC *usecase.StandingOrderUseCase) *StandingOrderHandler {
	return &StandingOrderHandler{orderUC: orderUC}
}

// Create creates a new standing order.
func (h *StandingOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateStandingOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.Create(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create standing order", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StandingOrderFromDomain(order))
}

// Get retrieves a standing order owned by the authenticated user.
func (h *StandingOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing standing order ID", "")
		return
	}

	order, err := h.orderUC.Get(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get standing order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StandingOrderFromDomain(order))
}

// List lists the authenticated user's standing orders.
func (h *StandingOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orderUC.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list standing orders", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StandingOrdersFromDomain(orders))
}

// Cancel cancels an active standing order.
func (h *StandingOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing standing order ID", "")
		return
	}

	order, err := h.orderUC.Cancel(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel standing order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StandingOrderFromDomain(order))
}
