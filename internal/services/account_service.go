package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gastos/internal/auth"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// AccountService owns registration, login, token lifecycle and profile
// management.
type AccountService struct {
	repo   *storage.SQLiteRepository
	tokens *auth.Manager
	logger *log.Logger
}

func NewAccountService(repo *storage.SQLiteRepository, tokens *auth.Manager, logger *log.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAccount),
	}
}

type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// Register creates an active account and returns it with a fresh token
// pair, so a new user is signed in immediately.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*core.User, auth.TokenPair, error) {
	fe := core.FieldErrors{}

	email, err := core.NormalizeEmail(in.Email)
	if err != nil {
		fe.Add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		fe.Add("email", "enter a valid email address")
	}
	if err := core.ValidatePassword(in.Password); err != nil {
		var pfe core.FieldErrors
		if errors.As(err, &pfe) {
			for k, v := range pfe {
				fe.Add(k, v)
			}
		}
	}
	if in.Password != in.PasswordConfirm {
		fe.Add("password", "passwords do not match")
	}
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" {
		fe.Add("first_name", "first name is required")
	}
	if lastName == "" {
		fe.Add("last_name", "last name is required")
	}
	if err := fe.Err(); err != nil {
		return nil, auth.TokenPair{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return nil, auth.TokenPair{}, core.FieldErrors{"email": "a user with this email already exists"}
		}
		return nil, auth.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		log.FieldUserID, user.ID,
		log.FieldEmail, user.Email)
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. A disabled account
// is reported before the password is checked.
func (s *AccountService) Login(ctx context.Context, email, password string) (*core.User, auth.TokenPair, error) {
	normalized, err := core.NormalizeEmail(email)
	if err != nil {
		return nil, auth.TokenPair{}, core.ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.TokenPair{}, core.ErrInvalidCredentials
		}
		return nil, auth.TokenPair{}, err
	}

	if !user.IsActive {
		return nil, auth.TokenPair{}, core.ErrAccountDisabled
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, auth.TokenPair{}, core.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return user, pair, nil
}

// Logout revokes the refresh token. The access token stays valid until
// it expires on its own.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}

	if err := s.repo.BlacklistToken(ctx, claims.JTI, claims.UserID, claims.ExpiresAt); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "refresh token revoked", log.FieldUserID, claims.UserID)
	return nil
}

// Refresh exchanges a live refresh token for a new access token. Revoked
// tokens and tokens of deleted or disabled accounts are rejected.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	revoked, err := s.repo.IsTokenBlacklisted(ctx, claims.JTI)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", core.ErrTokenRevoked
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", core.ErrAccountDisabled
	}

	return s.tokens.IssueAccess(*user)
}

// Profile returns the full account record.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*core.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile changes the name fields. Email and join date are
// immutable through this path.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) (*core.User, error) {
	if err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(firstName), strings.TrimSpace(lastName)); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}

// ChangePassword verifies the current password before storing a new one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next, nextConfirm string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, current) {
		return core.FieldErrors{"old_password": "current password is incorrect"}
	}
	if next != nextConfirm {
		return core.FieldErrors{"new_password": "passwords do not match"}
	}
	if err := core.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password changed", log.FieldUserID, userID)
	return nil
}

// CreateSuperuser creates an active staff account with all flags set.
// Used by the admin CLI, never by the HTTP surface.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, password, firstName, lastName string) (*core.User, error) {
	normalized, err := core.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Email:        normalized,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "superuser created", log.FieldEmail, user.Email)
	return user, nil
}
