package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_market/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionHeader = "X-Session-ID"

type TokenStore interface {
	Save(ctx context.Context, rec session.Record, rememberMe bool) (string, error)
	Load(ctx context.Context, id string) (*session.Record, error)
	Delete(ctx context.Context, id string) error
}

// RequestIDMiddleware echoes the request ID assigned by middleware.RequestID back to the
// client. Requests that arrive without one get a uuid.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.NewString()
			r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, requestID))
		}
		w.Header().Set(middleware.RequestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// SessionMiddleware resolves the caller from the X-Session-ID header and stores it in the
// request context. The owner is the subject bound at login; a bearer token on its own is
// not accepted.
func SessionMiddleware(tokens TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "missing session")
				return
			}

			rec, err := tokens.Load(r.Context(), id)
			if errors.Is(err, session.ErrSessionNotFound) {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired or unknown")
				return
			}
			if err != nil {
				zap.L().Error("session lookup failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "internal_error", "session lookup failed")
				return
			}
			if rec.Subject == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "session has no owner")
				return
			}

			info := session.Info{ID: id, Subject: rec.Subject, AccessToken: rec.AccessToken}
			next.ServeHTTP(w, r.WithContext(session.WithInfo(r.Context(), info)))
		})
	}
}

func ownerFromContext(ctx context.Context) string {
	info, _ := session.FromContext(ctx)
	return info.Subject
}
