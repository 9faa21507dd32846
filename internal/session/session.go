// Package session keeps the logged-in identity in a signed cookie.
//
// The cookie holds an HS256 JWT carrying either a user id or the admin flag.
// Tokens past half of their lifetime are re-issued on use, and logout records
// the token id in a Revoker until the token would have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expense-ledger/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"
	// DefaultTTL is how long sessions last (30 days).
	DefaultTTL = 30 * 24 * time.Hour
)

// ErrNoSession is returned when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Config configures a Manager.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
}

// Manager issues, validates and clears session cookies.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoked Revoker
	now     func() time.Time
}

// NewManager creates a Manager. A nil revoker uses an in-memory list.
func NewManager(cfg Config, revoker Revoker) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Manager{
		secret:  cfg.Secret,
		ttl:     cfg.TTL,
		secure:  cfg.Secure,
		revoked: revoker,
		now:     time.Now,
	}
}

// Issue starts a session for id and writes the cookie.
func (m *Manager) Issue(w http.ResponseWriter, id auth.Identity) error {
	if id.IsZero() {
		return fmt.Errorf("issue session: empty identity")
	}

	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: id.Email(),
		Admin: id.IsAdmin(),
	}
	if uid, ok := id.UserID(); ok {
		c.Subject = strconv.FormatInt(uid, 10)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	m.setCookie(w, CookieName, token, int(m.ttl.Seconds()))
	return nil
}

// Authenticate returns the identity of the request's session.
//
// Rolling session: when the token is in the second half of its lifetime a
// fresh one is written to w.
func (m *Manager) Authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, error) {
	c, err := m.load(r)
	if err != nil {
		return auth.Identity{}, err
	}

	id, err := identityFromClaims(c)
	if err != nil {
		return auth.Identity{}, err
	}

	if c.ExpiresAt != nil && c.ExpiresAt.Sub(m.now()) < m.ttl/2 {
		// If renewal fails, just continue with the current session
		_ = m.Issue(w, id)
	}
	return id, nil
}

// Peek returns the identity of the request's session without renewing it.
func (m *Manager) Peek(r *http.Request) (auth.Identity, error) {
	c, err := m.load(r)
	if err != nil {
		return auth.Identity{}, err
	}
	return identityFromClaims(c)
}

// Clear revokes the request's session, if any, and deletes the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	defer m.setCookie(w, CookieName, "", -1)

	c, err := m.load(r)
	if err != nil {
		return nil
	}
	if c.ID == "" || c.ExpiresAt == nil {
		return nil
	}
	return m.revoked.Revoke(r.Context(), c.ID, c.ExpiresAt.Time)
}

func (m *Manager) load(r *http.Request) (*claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	c := &claims{}
	_, err = jwt.ParseWithClaims(cookie.Value, c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	revoked, err := m.revoked.IsRevoked(r.Context(), c.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrNoSession)
	}
	return c, nil
}

func identityFromClaims(c *claims) (auth.Identity, error) {
	if c.Admin {
		return auth.Admin(c.Email), nil
	}
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return auth.Identity{}, fmt.Errorf("%w: bad subject %q", ErrNoSession, c.Subject)
	}
	return auth.Member(uid, c.Email), nil
}

func (m *Manager) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoker remembers logged-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
