package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// AdminPanel renders every user and every expense.
func (h *Handlers) AdminPanel(w http.ResponseWriter, r *http.Request) {
	overview, err := h.admin.Overview(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin overview error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin.html", "Admin", overview)
}

// Healthz reports liveness and database reachability.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.db.Ping(ctx); err != nil {
		slog.ErrorContext(r.Context(), "Health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}
