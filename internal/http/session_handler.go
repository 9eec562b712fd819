package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/backend"
	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/session"
	"go.uber.org/zap"
)

type SessionHandler struct {
	tokens   TokenStore
	profiles Profiles
	carts    *cart.Registry
	sessions *checkout.Sessions
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSessionHandler(tokens TokenStore, profiles Profiles, carts *cart.Registry, sessions *checkout.Sessions, timeout time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		tokens:   tokens,
		profiles: profiles,
		carts:    carts,
		sessions: sessions,
		timeout:  timeout,
		logger:   logger,
	}
}

type LoginRequestDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	RememberMe   bool   `json:"remember_me"`
}

type LoginResponseDTO struct {
	SessionID string `json:"session_id"`
	Subject   string `json:"subject"`
}

// Login asks the backend whose access token this is and binds the returned profile ID to a
// new session. The session ID is what the client sends in X-Session-ID from then on.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "access_token is required")
		return
	}

	profile, err := h.profiles.GetProfile(session.WithInfo(ctx, session.Info{AccessToken: req.AccessToken}))
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		respondError(w, http.StatusUnauthorized, "invalid_token", "access_token was rejected")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}
	if profile == nil || profile.ID == "" {
		h.logger.Error("profile without id returned for login")
		respondError(w, http.StatusBadGateway, "backend_error", "profile has no id")
		return
	}

	id, err := h.tokens.Save(ctx, session.Record{
		Subject: profile.ID,
		TokenPair: session.TokenPair{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
		},
	}, req.RememberMe)
	if errors.Is(err, session.ErrTokenExpired) {
		respondError(w, http.StatusUnauthorized, "invalid_token", "access_token has expired")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, LoginResponseDTO{SessionID: id, Subject: profile.ID})
}

// Logout ends the session: the cart and its persisted copy are removed so nothing leaks to
// the next user of the device.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	info, _ := session.FromContext(ctx)

	if err := h.carts.Logout(ctx, info.Subject); err != nil {
		handleError(w, err)
		return
	}
	h.sessions.Drop(info.Subject)

	if err := h.tokens.Delete(ctx, info.ID); err != nil {
		h.logger.Warn("session delete failed", zap.String("session_id", info.ID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
