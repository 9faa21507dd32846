package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"expense-ledger/internal/session"
)

// RequireSession wraps handlers to require a logged-in identity. Requests
// without a valid session are redirected to /login without further
// processing. Sessions past half their lifetime are renewed.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.sessions.Authenticate(w, r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				slog.ErrorContext(r.Context(), "Session check failed", "error", err)
			}
			// Invalid or expired session, clear the cookie
			if _, cerr := r.Cookie(session.CookieName); cerr == nil {
				_ = h.sessions.Clear(w, r)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-admin identities. It must run inside
// RequireSession.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r).IsAdmin() {
			h.redirect(w, r, "/", session.FlashDanger, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// memberOnly sends the administrator, who owns no expenses, to the admin
// panel.
func (h *Handlers) memberOnly(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r).IsAdmin() {
			http.Redirect(w, r, "/admin", http.StatusFound)
			return
		}
		next(w, r)
	})
}

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= 400 && rec.status < 500 {
				level = slog.LevelWarn
			} else if rec.status >= 500 {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
