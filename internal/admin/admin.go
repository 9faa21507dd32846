// Package admin builds the read-only administrator overview.
package admin

import (
	"context"
	"fmt"

	"expense-ledger/internal/models"
)

// Store is the read-only persistence used by the overview.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAllExpenses(ctx context.Context) ([]models.Expense, error)
}

// Overview is everything shown on the admin page.
type Overview struct {
	Users        []models.User
	Expenses     []models.Expense
	UserCount    int
	ExpenseCount int
}

// Service reads across all owners.
type Service struct {
	store Store
}

// NewService creates a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Overview lists all users and all expenses, newest first.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	expenses, err := s.store.ListAllExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	return &Overview{
		Users:        users,
		Expenses:     expenses,
		UserCount:    len(users),
		ExpenseCount: len(expenses),
	}, nil
}
