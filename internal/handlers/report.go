package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"expense-ledger/internal/report"
)

// PDF streams the user's active expenses as a PDF attachment.
func (h *Handlers) PDF(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r)
	uid, _ := id.UserID()

	list, err := h.expenses.ListActive(r.Context(), uid, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "ListActive error", "user_id", uid, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Render into memory first so a failure can still produce an error page.
	var buf bytes.Buffer
	if err := report.Render(&buf, id.Email(), list, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "PDF render error", "user_id", uid, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.metrics.ReportGenerated()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=expenses.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "PDF write interrupted", "error", err)
	}
}
