package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"expense-ledger/internal/expenses"

	"github.com/go-playground/validator/v10"
)

// loginForm accepts any non-empty email since the administrator address is
// configured freely.
type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"`
}

type expenseForm struct {
	Amount   string `validate:"required,max=32"`
	Category string `validate:"required,max=50"`
	Note     string `validate:"max=200"`
	Date     string `validate:"required,datetime=2006-01-02"`
}

func (f expenseForm) input() expenses.Input {
	return expenses.Input{Amount: f.Amount, Category: f.Category, Note: f.Note, Date: f.Date}
}

func parseLoginForm(r *http.Request) (loginForm, error) {
	if err := r.ParseForm(); err != nil {
		return loginForm{}, err
	}
	return loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}, nil
}

func parseRegisterForm(r *http.Request) (registerForm, error) {
	if err := r.ParseForm(); err != nil {
		return registerForm{}, err
	}
	return registerForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}, nil
}

func parseExpenseForm(r *http.Request) (expenseForm, error) {
	if err := r.ParseForm(); err != nil {
		return expenseForm{}, err
	}
	return expenseForm{
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		Category: strings.TrimSpace(r.FormValue("category")),
		Note:     strings.TrimSpace(r.FormValue("note")),
		Date:     strings.TrimSpace(r.FormValue("date")),
	}, nil
}

// validationMessage turns the first validator failure into a sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid form submission"
	}

	fe := verrs[0]
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "datetime":
		return name + " must be in YYYY-MM-DD format"
	}
	return name + " is invalid"
}
