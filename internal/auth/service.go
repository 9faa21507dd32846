package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"expense-ledger/internal/models"
)

// UserStore is the persistence needed for login and registration.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
}

// Service authenticates users and registers new accounts.
type Service struct {
	users         UserStore
	adminEmail    string
	adminPassword string
}

// NewService creates a Service. adminEmail and adminPassword are the
// configured administrator credentials.
func NewService(users UserStore, adminEmail, adminPassword string) *Service {
	return &Service{users: users, adminEmail: adminEmail, adminPassword: adminPassword}
}

// Authenticate checks credentials and returns the matching identity.
// Administrator credentials never touch the store.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	if s.isAdmin(email, password) {
		return Admin(s.adminEmail), nil
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return Identity{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return Identity{}, models.ErrInvalidCredentials
	}
	return Member(user.ID, user.Email), nil
}

// Register creates a new account. The administrator email is reserved.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == s.adminEmail {
		return nil, models.ErrReservedEmail
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, models.ErrEmailTaken
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.CreateUser(ctx, email, hash)
}

func (s *Service) isAdmin(email, password string) bool {
	if s.adminEmail == "" || s.adminPassword == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	return emailOK && passOK
}
