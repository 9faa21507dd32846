// Package handlers implements the HTTP interface of the expense tracker.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"expense-ledger/internal/admin"
	"expense-ledger/internal/auth"
	"expense-ledger/internal/expenses"
	"expense-ledger/internal/metrics"
	"expense-ledger/internal/models"
	"expense-ledger/internal/session"

	"github.com/go-playground/validator/v10"
)

// Context key type to avoid collisions.
type contextKey string

// IdentityContextKey is the context key for the authenticated identity.
const IdentityContextKey contextKey = "identity"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the dependencies of Handlers.
type Config struct {
	Auth      *auth.Service
	Expenses  *expenses.Service
	Admin     *admin.Service
	Sessions  *session.Manager
	DB        Pinger
	Metrics   *metrics.Metrics
	Templates fs.FS
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	auth      *auth.Service
	expenses  *expenses.Service
	admin     *admin.Service
	sessions  *session.Manager
	db        Pinger
	metrics   *metrics.Metrics
	validate  *validator.Validate
	templates map[string]*template.Template
}

var views = []string{"login.html", "register.html", "index.html", "edit.html", "admin.html"}

// NewHandlers parses the templates and creates a Handlers instance.
func NewHandlers(cfg Config) (*Handlers, error) {
	templates := make(map[string]*template.Template, len(views))
	for _, view := range views {
		tmpl, err := template.ParseFS(cfg.Templates, "base.html", "categories.html", view)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		templates[view] = tmpl
	}

	return &Handlers{
		auth:      cfg.Auth,
		expenses:  cfg.Expenses,
		admin:     cfg.Admin,
		sessions:  cfg.Sessions,
		db:        cfg.DB,
		metrics:   cfg.Metrics,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		templates: templates,
	}, nil
}

// Routes registers every application route on a new ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.Handle("GET /{$}", h.RequireSession(h.memberOnly(h.Dashboard)))
	mux.Handle("POST /{$}", h.RequireSession(h.memberOnly(h.AddExpense)))
	mux.Handle("GET /edit/{id}", h.RequireSession(http.HandlerFunc(h.EditExpenseForm)))
	mux.Handle("POST /edit/{id}", h.RequireSession(http.HandlerFunc(h.UpdateExpense)))
	mux.Handle("POST /delete/{id}", h.RequireSession(http.HandlerFunc(h.DeleteExpense)))
	mux.Handle("POST /settle/{id}", h.RequireSession(http.HandlerFunc(h.SettleExpense)))
	mux.Handle("GET /pdf", h.RequireSession(h.memberOnly(h.PDF)))
	mux.Handle("GET /admin", h.RequireSession(h.RequireAdmin(http.HandlerFunc(h.AdminPanel))))

	return mux
}

// GetIdentity retrieves the authenticated identity from request context.
// It is the zero Identity outside RequireSession.
func GetIdentity(r *http.Request) auth.Identity {
	if id, ok := r.Context().Value(IdentityContextKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

// Page is the data passed to every template. Data holds the view model.
type Page struct {
	Title      string
	Flash      *session.Flash
	User       auth.Identity
	Categories []CategoryDef
	Data       any
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName, title string, data any) {
	h.renderFlash(w, r, nil, viewName, title, data)
}

// renderFlash renders a view with a notice produced by this request. A
// pending notice from an earlier request is consumed either way and shown
// only when flash is nil.
func (h *Handlers) renderFlash(w http.ResponseWriter, r *http.Request, flash *session.Flash, viewName, title string, data any) {
	if pending := h.sessions.PopFlash(w, r); flash == nil {
		flash = pending
	}

	tmpl, ok := h.templates[viewName]
	if !ok {
		slog.ErrorContext(r.Context(), "Unknown template", "view", viewName)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	page := Page{
		Title:      title,
		Flash:      flash,
		User:       GetIdentity(r),
		Categories: categories,
		Data:       data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", page); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "view", viewName, "error", err)
	}
}

// redirect stores a flash notice and sends the client to path.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, path, kind, message string) {
	if message != "" {
		h.sessions.SetFlash(w, kind, message)
	}
	http.Redirect(w, r, path, http.StatusFound)
}

// pathID parses the {id} path value. Malformed ids cannot name an expense.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: expense %q", models.ErrNotFound, r.PathValue("id"))
	}
	return id, nil
}

// validationDetail returns the user-facing part of a validation error.
func validationDetail(err error) string {
	msg := strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// CategoryDef defines the properties of a suggested category.
type CategoryDef struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

var categories = []CategoryDef{
	{"food", "Food", "🍽️", "#60a5fa"},
	{"transport", "Transport", "🚌", "#a78bfa"},
	{"entertainment", "Entertainment", "🎮", "#f472b6"},
	{"utilities", "Utilities", "💡", "#fbbf24"},
	{"housing", "Housing", "🏠", "#818cf8"},
	{"gifts", "Gifts", "🎁", "#fb7185"},
	{"lent", models.LentCategory, "🤝", "#34d399"},
	{"other", "Other", "📦", "#94a3b8"},
}

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

func getCategoryStyle(category string) CategoryStyle {
	catLower := strings.ToLower(category)
	for _, c := range categories {
		if c.ID == catLower {
			return CategoryStyle{Icon: c.Icon, Color: c.Color}
		}
	}
	return CategoryStyle{Icon: "📦", Color: "#94a3b8"}
}

// isDomainError reports whether err is one of the errors users can cause.
func isDomainError(err error) bool {
	for _, target := range []error{
		models.ErrValidation,
		models.ErrUnauthorized,
		models.ErrNotFound,
		models.ErrInvalidState,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
