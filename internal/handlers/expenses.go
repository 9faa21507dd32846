package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"expense-ledger/internal/models"
	"expense-ledger/internal/session"
)

// Dashboard lists the user's active expenses, optionally for one month.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r)
	uid, _ := id.UserID()

	var month *models.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := models.ParseMonth(raw)
		if err != nil {
			h.redirect(w, r, "/", session.FlashWarning, "Invalid month filter, showing all expenses")
			return
		}
		month = &m
	}

	list, err := h.expenses.ListActive(r.Context(), uid, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "ListActive error", "user_id", uid, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	today := models.NewDate(now.Year(), now.Month(), now.Day())
	h.render(w, r, "index.html", "Dashboard", newDashboard(list, month, today))
}

// AddExpense handles the creation of a new expense.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	form, err := parseExpenseForm(r)
	if err != nil {
		h.redirect(w, r, "/", session.FlashDanger, "Invalid form submission")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirect(w, r, "/", session.FlashDanger, "Error adding expense: "+validationMessage(err))
		return
	}

	if _, err := h.expenses.Add(r.Context(), GetIdentity(r), form.input()); err != nil {
		h.expenseError(w, r, "/", "Error adding expense", err)
		return
	}
	h.redirect(w, r, "/", session.FlashSuccess, "Expense added successfully")
}

// EditExpenseForm renders the form to edit an existing expense.
func (h *Handlers) EditExpenseForm(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r)
	if err != nil {
		h.expenseError(w, r, "/", "", err)
		return
	}

	expense, err := h.expenses.Get(r.Context(), GetIdentity(r), expenseID)
	if err != nil {
		h.expenseError(w, r, "/", "", err)
		return
	}
	h.render(w, r, "edit.html", "Edit expense", expense)
}

// UpdateExpense handles the update of an existing expense.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r)
	if err != nil {
		h.expenseError(w, r, "/", "", err)
		return
	}
	back := fmt.Sprintf("/edit/%d", expenseID)

	form, err := parseExpenseForm(r)
	if err != nil {
		h.redirect(w, r, back, session.FlashDanger, "Invalid form submission")
		return
	}

	// Ownership is checked before the form so that a foreign id is reported
	// as such whatever was submitted.
	if _, err := h.expenses.Get(r.Context(), GetIdentity(r), expenseID); err != nil {
		h.expenseError(w, r, "/", "", err)
		return
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirect(w, r, back, session.FlashDanger, "Error updating expense: "+validationMessage(err))
		return
	}

	if _, err := h.expenses.Edit(r.Context(), GetIdentity(r), expenseID, form.input()); err != nil {
		target := "/"
		if errors.Is(err, models.ErrValidation) {
			target = back
		}
		h.expenseError(w, r, target, "Error updating expense", err)
		return
	}
	h.redirect(w, r, "/", session.FlashInfo, "Expense updated successfully")
}

// DeleteExpense permanently removes an expense.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r)
	if err == nil {
		err = h.expenses.Delete(r.Context(), GetIdentity(r), expenseID)
	}
	if err != nil {
		h.expenseError(w, r, "/", "Error deleting expense", err)
		return
	}
	h.redirect(w, r, "/", session.FlashDanger, "Expense deleted successfully")
}

// SettleExpense marks a Lent expense as repaid.
func (h *Handlers) SettleExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r)
	if err == nil {
		err = h.expenses.Settle(r.Context(), GetIdentity(r), expenseID)
	}
	if err != nil {
		h.expenseError(w, r, "/", "Error settling expense", err)
		return
	}
	h.redirect(w, r, "/", session.FlashSuccess, "Lent amount settled successfully")
}

// expenseError maps a service error to a flash notice and a redirect.
// Unexpected errors are logged and reported with the generic message.
func (h *Handlers) expenseError(w http.ResponseWriter, r *http.Request, target, generic string, err error) {
	var msg string
	switch {
	case errors.Is(err, models.ErrNotFound):
		msg = "Expense not found"
	case errors.Is(err, models.ErrUnauthorized):
		msg = "Unauthorized access"
	case errors.Is(err, models.ErrInvalidState):
		msg = "Cannot settle this expense"
	case errors.Is(err, models.ErrValidation):
		msg = generic + ": " + validationDetail(err)
	}
	if !isDomainError(err) {
		slog.ErrorContext(r.Context(), generic, "path", r.URL.Path, "error", err)
		msg = generic
	}
	if msg == "" {
		msg = "An error occurred. Please try again."
	}
	h.redirect(w, r, target, session.FlashDanger, msg)
}
