package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_market/internal/backend"
	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/session"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleError maps domain and backend errors to HTTP status codes.
func handleError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, checkout.ErrNoCheckout):
		httpStatus, code = http.StatusNotFound, "checkout_not_found"
	case errors.Is(err, cart.ErrOutOfStock):
		httpStatus, code = http.StatusConflict, "out_of_stock"
	case errors.Is(err, checkout.ErrIllegalTransition):
		httpStatus, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		httpStatus, code = http.StatusConflict, "submission_in_flight"
	case errors.Is(err, checkout.ErrEmptyCart):
		httpStatus, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, checkout.ErrInvalidAddress):
		httpStatus, code = http.StatusBadRequest, "invalid_address"
	case errors.Is(err, checkout.ErrInvalidPaymentMethod), errors.Is(err, checkout.ErrPaymentMethodRequired):
		httpStatus, code = http.StatusBadRequest, "invalid_payment_method"
	case errors.Is(err, checkout.ErrBankTransferUnconfirmed):
		httpStatus, code = http.StatusBadRequest, "bank_transfer_unconfirmed"
	case errors.Is(err, checkout.ErrPricing):
		httpStatus, code = http.StatusUnprocessableEntity, "pricing_error"
	case errors.Is(err, session.ErrSessionNotFound):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, backend.ErrUnavailable):
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.As(err, &apiErr):
		httpStatus, code = http.StatusBadGateway, "backend_error"
		if apiErr.StatusCode == http.StatusNotFound {
			httpStatus, code = http.StatusNotFound, "not_found"
		}
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, backend.ErrRequestFailed):
		httpStatus, code = http.StatusBadGateway, "backend_error"
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
