// Package auth implements the token service: bcrypt password hashing and
// the JWT access/refresh pair lifecycle.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gastos/internal/core"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type claims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an access token with its longer-lived refresh companion.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshClaims identifies a parsed refresh token for blacklist checks.
type RefreshClaims struct {
	UserID    int64
	Email     string
	JTI       string
	ExpiresAt time.Time
}

// Manager issues and validates HS256 token pairs. The zero value is not
// usable; construct with NewManager.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair mints an access/refresh pair carrying the user's identity
// claim. The refresh token gets a UUID jti so it can be revoked later.
func (m *Manager) IssuePair(u core.User) (TokenPair, error) {
	access, err := m.sign(u, tokenTypeAccess, m.accessTTL, "")
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(u, tokenTypeRefresh, m.refreshTTL, uuid.NewString())
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a fresh access token for the user.
func (m *Manager) IssueAccess(u core.User) (string, error) {
	return m.sign(u, tokenTypeAccess, m.accessTTL, "")
}

func (m *Manager) sign(u core.User, tokenType string, ttl time.Duration, jti string) (string, error) {
	now := m.now()
	c := claims{
		Email:     u.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// ParseAccess validates an access token and returns the caller identity.
func (m *Manager) ParseAccess(token string) (*Principal, error) {
	c, err := m.parse(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	return &Principal{UserID: userID, Email: c.Email}, nil
}

// ParseRefresh validates a refresh token and returns its revocation key.
func (m *Manager) ParseRefresh(token string) (*RefreshClaims, error) {
	c, err := m.parse(token, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	if c.ID == "" || c.ExpiresAt == nil {
		return nil, core.ErrInvalidToken
	}
	return &RefreshClaims{
		UserID:    userID,
		Email:     c.Email,
		JTI:       c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (m *Manager) parse(token, wantType string) (*claims, error) {
	if token == "" {
		return nil, core.ErrMissingToken
	}
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid {
		return nil, core.ErrInvalidToken
	}
	c, ok := tok.Claims.(*claims)
	if !ok || c.TokenType != wantType || c.Subject == "" {
		return nil, core.ErrInvalidToken
	}
	return c, nil
}
