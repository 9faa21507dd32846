package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"
	"expense-ledger/internal/session"
)

// credentialsView holds data for the login and register pages.
type credentialsView struct {
	Email string
}

func homeOf(id auth.Identity) string {
	if id.IsAdmin() {
		return "/admin"
	}
	return "/"
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect home
	if id, err := h.sessions.Peek(r); err == nil {
		http.Redirect(w, r, homeOf(id), http.StatusFound)
		return
	}
	h.render(w, r, "login.html", "Login", credentialsView{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	form, err := parseLoginForm(r)
	if err != nil {
		h.redirect(w, r, "/login", session.FlashDanger, "Invalid form submission")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirect(w, r, "/login", session.FlashDanger, "Email and password are required")
		return
	}

	id, err := h.auth.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "Login failed", "error", err)
		}
		h.metrics.Login("failed")
		h.renderFlash(w, r, &session.Flash{Kind: session.FlashDanger, Message: "Invalid email or password"},
			"login.html", "Login", credentialsView{Email: form.Email})
		return
	}

	if err := h.sessions.Issue(w, id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create session", "error", err)
		h.redirect(w, r, "/login", session.FlashDanger, "An error occurred. Please try again.")
		return
	}

	if id.IsAdmin() {
		h.metrics.Login("admin")
		h.redirect(w, r, "/admin", session.FlashSuccess, "Admin login successful")
		return
	}
	h.metrics.Login("user")
	h.redirect(w, r, "/", session.FlashSuccess, "Login successful")
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", "Register", credentialsView{})
}

// Register creates an account and sends the user to the login page.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	form, err := parseRegisterForm(r)
	if err != nil {
		h.redirect(w, r, "/register", session.FlashDanger, "Invalid form submission")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirect(w, r, "/register", session.FlashDanger, validationMessage(err))
		return
	}

	if _, err := h.auth.Register(r.Context(), form.Email, form.Password); err != nil {
		switch {
		case errors.Is(err, models.ErrReservedEmail):
			h.redirect(w, r, "/register", session.FlashDanger, "This email is reserved")
		case errors.Is(err, models.ErrEmailTaken):
			h.redirect(w, r, "/register", session.FlashDanger, "Email already registered")
		default:
			slog.ErrorContext(r.Context(), "Registration failed", "error", err)
			h.redirect(w, r, "/register", session.FlashDanger, "An error occurred. Please try again.")
		}
		return
	}

	h.redirect(w, r, "/login", session.FlashSuccess, "Account created successfully! Please login.")
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to revoke session", "error", err)
	}
	h.redirect(w, r, "/login", session.FlashSuccess, "Logged out successfully")
}
