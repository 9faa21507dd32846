package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"
)

const userColumns = "id, email, password_hash, created_at"

// CreateUser creates a new user with the given email and password hash.
// A duplicate email yields models.ErrEmailTaken.
func (q *Queries) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	u := models.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	err := q.queryRow(ctx,
		"INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?) RETURNING id",
		u.Email, u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return q.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByEmail retrieves a user by email. The match is case-sensitive.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (q *Queries) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := q.queryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every user, newest first.
func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserCount returns the number of users in the database.
func (q *Queries) UserCount(ctx context.Context) (int, error) {
	var count int
	err := q.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
