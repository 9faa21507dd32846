package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"
)

const expenseColumns = "id, user_id, amount_cents, category, note, date, status, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner, extra ...any) (models.Expense, error) {
	var e models.Expense
	dest := []any{&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Note, &e.Date, &e.Status, &e.CreatedAt}
	err := s.Scan(append(dest, extra...)...)
	return e, err
}

// CreateExpense inserts e and fills in its ID and CreatedAt.
// Status defaults to active when unset.
func (q *Queries) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	e.CreatedAt = time.Now().UTC()
	err := q.queryRow(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, note, date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		e.UserID, e.Amount.Cents, e.Category, e.Note, e.Date, string(e.Status), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves a single expense by ID.
func (q *Queries) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := q.queryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select expense: %w", err)
	}
	return &e, nil
}

// UpdateExpense writes the editable fields of e. Owner and status are left
// untouched.
func (q *Queries) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := q.exec(ctx,
		"UPDATE expenses SET amount_cents = ?, category = ?, note = ?, date = ? WHERE id = ?",
		e.Amount.Cents, e.Category, e.Note, e.Date, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return expectOneRow(res, e.ID)
}

// SetExpenseStatus changes the status of the expense with the given ID.
func (q *Queries) SetExpenseStatus(ctx context.Context, id int64, status models.Status) error {
	res, err := q.exec(ctx, "UPDATE expenses SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("update expense status: %w", err)
	}
	return expectOneRow(res, id)
}

// DeleteExpense permanently removes the expense with the given ID.
func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOneRow(res, id)
}

// ListActiveExpenses returns the user's active expenses, newest date first.
// A non-nil month restricts the result to that calendar month.
func (q *Queries) ListActiveExpenses(ctx context.Context, userID int64, month *models.Month) ([]models.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE user_id = ? AND status = ?"
	args := []any{userID, string(models.StatusActive)}
	if month != nil {
		query += " AND date >= ? AND date < ?"
		args = append(args, month.Start(), month.End())
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListAllExpenses returns every expense with its owner's email, most
// recently created first.
func (q *Queries) ListAllExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := q.query(ctx, `
		SELECT e.id, e.user_id, e.amount_cents, e.category, e.note, e.date, e.status, e.created_at,
			COALESCE(u.email, '')
		FROM expenses e
		LEFT JOIN users u ON u.id = e.user_id
		ORDER BY e.created_at DESC, e.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var owner string
		e, err := scanExpense(rows, &owner)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.OwnerEmail = owner
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ExpenseCount returns the number of expenses of any status.
func (q *Queries) ExpenseCount(ctx context.Context) (int, error) {
	var count int
	err := q.queryRow(ctx, "SELECT COUNT(*) FROM expenses").Scan(&count)
	return count, err
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, models.ErrNotFound)
	}
	return nil
}
