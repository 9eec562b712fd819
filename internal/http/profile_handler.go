package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
)

type Profiles interface {
	GetProfile(ctx context.Context) (*domain.UserProfile, error)
	ListAddresses(ctx context.Context) ([]domain.ShippingAddress, error)
}

// ProfileHandler proxies the profile endpoints the shipping step fills its form from.
type ProfileHandler struct {
	profiles Profiles
	timeout  time.Duration
}

func NewProfileHandler(profiles Profiles, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, timeout: timeout}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.profiles.GetProfile(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addrs, err := h.profiles.ListAddresses(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if addrs == nil {
		addrs = []domain.ShippingAddress{}
	}
	respondJSON(w, http.StatusOK, addrs)
}
