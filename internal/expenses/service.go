// Package expenses applies expense mutations on behalf of a logged-in
// identity and builds the active-expense views.
package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"
)

const (
	maxCategoryLen = 50
	maxNoteLen     = 200
)

// Store is the persistence the service needs.
type Store interface {
	WithTx(ctx context.Context, fn func(q *storage.Queries) error) error
	ListActiveExpenses(ctx context.Context, userID int64, month *models.Month) ([]models.Expense, error)
}

// Recorder observes completed operations. It may be nil.
type Recorder interface {
	ExpenseOperation(op, outcome string)
}

// Input is the raw form data of an add or edit.
type Input struct {
	Amount   string
	Category string
	Note     string
	Date     string
}

// Service enforces validation and ownership on expense operations.
type Service struct {
	store    Store
	recorder Recorder
}

// NewService creates a Service.
func NewService(store Store, recorder Recorder) *Service {
	return &Service{store: store, recorder: recorder}
}

// parse validates in and returns the resulting field values.
func (in Input) parse() (models.Expense, error) {
	amount, err := models.ParseMoney(in.Amount)
	if err != nil {
		return models.Expense{}, err
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.Expense{}, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return models.Expense{}, fmt.Errorf("%w: category is required", models.ErrValidation)
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return models.Expense{}, fmt.Errorf("%w: category too long (max %d characters)", models.ErrValidation, maxCategoryLen)
	}

	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > maxNoteLen {
		return models.Expense{}, fmt.Errorf("%w: note too long (max %d characters)", models.ErrValidation, maxNoteLen)
	}

	return models.Expense{Amount: amount, Category: category, Note: note, Date: date}, nil
}

// Add records a new active expense owned by id.
func (s *Service) Add(ctx context.Context, id auth.Identity, in Input) (*models.Expense, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, s.done("add", models.ErrUnauthorized)
	}

	e, err := in.parse()
	if err != nil {
		return nil, s.done("add", err)
	}
	e.UserID = uid
	e.Status = models.StatusActive

	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		return q.CreateExpense(ctx, &e)
	})
	if err != nil {
		return nil, s.done("add", err)
	}

	slog.InfoContext(ctx, "Expense created", "id", e.ID, "user_id", uid, "amount_cents", e.Amount.Cents, "category", e.Category)
	s.done("add", nil)
	return &e, nil
}

// Get returns an expense owned by id.
func (s *Service) Get(ctx context.Context, id auth.Identity, expenseID int64) (*models.Expense, error) {
	var e *models.Expense
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		e, err = owned(ctx, q, id, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Edit replaces amount, category, note and date of an expense owned by id.
// Either every field is updated or none is.
func (s *Service) Edit(ctx context.Context, id auth.Identity, expenseID int64, in Input) (*models.Expense, error) {
	var updated *models.Expense
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		e, err := owned(ctx, q, id, expenseID)
		if err != nil {
			return err
		}

		fields, err := in.parse()
		if err != nil {
			return err
		}
		e.Amount = fields.Amount
		e.Category = fields.Category
		e.Note = fields.Note
		e.Date = fields.Date

		if err := q.UpdateExpense(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, s.done("edit", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", expenseID)
	s.done("edit", nil)
	return updated, nil
}

// Delete permanently removes an expense owned by id.
func (s *Service) Delete(ctx context.Context, id auth.Identity, expenseID int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := owned(ctx, q, id, expenseID); err != nil {
			return err
		}
		return q.DeleteExpense(ctx, expenseID)
	})
	if err != nil {
		return s.done("delete", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", expenseID)
	return s.done("delete", nil)
}

// Settle marks an active "Lent" expense owned by id as repaid.
// Any other category, or an already settled expense, yields
// models.ErrInvalidState.
func (s *Service) Settle(ctx context.Context, id auth.Identity, expenseID int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		e, err := owned(ctx, q, id, expenseID)
		if err != nil {
			return err
		}
		if !e.CanSettle() {
			return fmt.Errorf("expense %d: cannot settle: %w", expenseID, models.ErrInvalidState)
		}
		return q.SetExpenseStatus(ctx, expenseID, models.StatusSettled)
	})
	if err != nil {
		return s.done("settle", err)
	}

	slog.InfoContext(ctx, "Expense settled", "id", expenseID)
	return s.done("settle", nil)
}

// owned loads the expense and checks that id owns it.
func owned(ctx context.Context, q *storage.Queries, id auth.Identity, expenseID int64) (*models.Expense, error) {
	e, err := q.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !id.Owns(e.UserID) {
		return nil, fmt.Errorf("expense %d: %w", expenseID, models.ErrUnauthorized)
	}
	return e, nil
}

func (s *Service) done(op string, err error) error {
	if s.recorder != nil {
		s.recorder.ExpenseOperation(op, Outcome(err))
	}
	return err
}
