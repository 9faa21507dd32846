package handlers

import (
	"expense-ledger/internal/expenses"
	"expense-ledger/internal/models"
)

// StatsCategoryItem represents a category with its spending statistics.
type StatsCategoryItem struct {
	expenses.CategoryTotal
	Style CategoryStyle
}

// ExpenseItem represents an expense in the list view.
type ExpenseItem struct {
	models.Expense
	Style CategoryStyle
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Expenses      []ExpenseItem
	Total         models.Money
	Breakdown     []StatsCategoryItem
	SelectedMonth string
	Today         string
}

func newDashboard(list []models.Expense, month *models.Month, today models.Date) DashboardViewModel {
	items := make([]ExpenseItem, 0, len(list))
	for _, e := range list {
		items = append(items, ExpenseItem{Expense: e, Style: getCategoryStyle(e.Category)})
	}

	totals := expenses.ByCategory(list)
	breakdown := make([]StatsCategoryItem, 0, len(totals))
	for _, ct := range totals {
		breakdown = append(breakdown, StatsCategoryItem{CategoryTotal: ct, Style: getCategoryStyle(ct.Category)})
	}

	vm := DashboardViewModel{
		Expenses:  items,
		Total:     expenses.Total(list),
		Breakdown: breakdown,
		Today:     today.String(),
	}
	if month != nil {
		vm.SelectedMonth = month.String()
	}
	return vm
}
