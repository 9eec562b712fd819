package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/domain"
)

type CheckoutHandler struct {
	carts    *cart.Registry
	sessions *checkout.Sessions
	timeout  time.Duration
}

func NewCheckoutHandler(carts *cart.Registry, sessions *checkout.Sessions, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		sessions: sessions,
		timeout:  timeout,
	}
}

type PaymentMethodRequestDTO struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// Start opens a checkout for the caller, or resumes the one in progress.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner := ownerFromContext(ctx)
	s, err := h.carts.Get(ctx, owner)
	if err != nil {
		handleError(w, err)
		return
	}
	if len(s.Items()) == 0 {
		handleError(w, checkout.ErrEmptyCart)
		return
	}

	o := h.sessions.Start(owner, s)
	respondJSON(w, http.StatusCreated, o.View())
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}

	var addr domain.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := o.SubmitShipping(addr); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) ConfirmSummary(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	if _, err := o.ConfirmSummary(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}

	var req PaymentMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := o.SelectPaymentMethod(req.PaymentMethod); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) ConfirmBankTransfer(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	if err := o.ConfirmBankTransfer(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	res, err := o.PlaceOrder(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	if err := o.Back(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	if err := o.Cancel(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o.View())
}

func (h *CheckoutHandler) orchestrator(w http.ResponseWriter, r *http.Request) (*checkout.Orchestrator, bool) {
	o, err := h.sessions.Get(ownerFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return o, true
}
