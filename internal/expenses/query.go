package expenses

import (
	"context"
	"errors"
	"sort"

	"expense-ledger/internal/models"
)

// ListActive returns the user's active expenses, newest date first,
// optionally limited to one calendar month.
func (s *Service) ListActive(ctx context.Context, userID int64, month *models.Month) ([]models.Expense, error) {
	return s.store.ListActiveExpenses(ctx, userID, month)
}

// Total sums the amounts of expenses. It is zero for an empty slice.
func Total(expenses []models.Expense) models.Money {
	var total models.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// CategoryTotal is the spending of one category.
type CategoryTotal struct {
	Category   string
	Total      models.Money
	Count      int
	Percentage float64
}

// ByCategory groups expenses by category, largest total first.
func ByCategory(expenses []models.Expense) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}

	sum := Total(expenses)
	for i := range out {
		if sum.Cents > 0 {
			out[i].Percentage = out[i].Total.Float() / sum.Float() * 100
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Outcome labels err for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	}
	return "error"
}
