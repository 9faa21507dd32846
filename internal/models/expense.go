package models

import "time"

// LentCategory is the only category whose expenses can be settled.
const LentCategory = "Lent"

// Status is the lifecycle state of an expense.
type Status string

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

// Expense represents a dated expense owned by a single user.
type Expense struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Amount    Money     `json:"amount"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	Date      Date      `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// OwnerEmail is only populated by the admin listing.
	OwnerEmail string `json:"owner_email,omitempty"`
}

// IsActive reports whether the expense still counts towards totals.
func (e Expense) IsActive() bool {
	return e.Status == StatusActive
}

// CanSettle reports whether the expense is an active loan.
func (e Expense) CanSettle() bool {
	return e.Category == LentCategory && e.IsActive()
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
