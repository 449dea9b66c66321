package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gastos/internal/auth"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func newAccountService(t *testing.T) (*AccountService, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tokens, err := auth.NewManager("0123456789abcdef0123456789abcdef", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	return NewAccountService(repo, tokens, testLogger()), repo
}

func register(t *testing.T, svc *AccountService, email string) (*core.User, auth.TokenPair) {
	t.Helper()
	user, pair, err := svc.Register(context.Background(), RegisterInput{
		Email:           email,
		Password:        "correcthorse1",
		PasswordConfirm: "correcthorse1",
		FirstName:       "Ana",
		LastName:        "García",
	})
	require.NoError(t, err)
	return user, pair
}

func TestRegister(t *testing.T) {
	svc, _ := newAccountService(t)

	user, pair := register(t, svc, "Ana@Example.COM")

	// Only the domain part of the email is lowercased.
	assert.Equal(t, "Ana@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, "correcthorse1", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		in        RegisterInput
		wantField string
	}{
		{
			name:      "missing email",
			in:        RegisterInput{Password: "correcthorse1", PasswordConfirm: "correcthorse1"},
			wantField: "email",
		},
		{
			name:      "not an email",
			in:        RegisterInput{Email: "nope", Password: "correcthorse1", PasswordConfirm: "correcthorse1"},
			wantField: "email",
		},
		{
			name:      "short password",
			in:        RegisterInput{Email: "a@example.com", Password: "short", PasswordConfirm: "short"},
			wantField: "password",
		},
		{
			name:      "numeric password",
			in:        RegisterInput{Email: "a@example.com", Password: "12345678901", PasswordConfirm: "12345678901"},
			wantField: "password",
		},
		{
			name:      "mismatched confirmation",
			in:        RegisterInput{Email: "a@example.com", Password: "correcthorse1", PasswordConfirm: "correcthorse2", FirstName: "Ana", LastName: "García"},
			wantField: "password",
		},
		{
			name:      "missing first name",
			in:        RegisterInput{Email: "a@example.com", Password: "correcthorse1", PasswordConfirm: "correcthorse1", LastName: "García"},
			wantField: "first_name",
		},
		{
			name:      "blank last name",
			in:        RegisterInput{Email: "a@example.com", Password: "correcthorse1", PasswordConfirm: "correcthorse1", FirstName: "Ana", LastName: "   "},
			wantField: "last_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.in)
			var fe core.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.wantField)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAccountService(t)
	register(t, svc, "ana@example.com")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:           "ana@EXAMPLE.com",
		Password:        "correcthorse1",
		PasswordConfirm: "correcthorse1",
		FirstName:       "Ana",
		LastName:        "García",
	})
	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "email")
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountService(t)
	register(t, svc, "ana@example.com")

	user, pair, err := svc.Login(context.Background(), "ana@example.com", "correcthorse1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEmpty(t, pair.Access)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAccountService(t)
	register(t, svc, "ana@example.com")

	_, _, err := svc.Login(context.Background(), "ana@example.com", "wrongpass99")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newAccountService(t)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "correcthorse1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()
	user, _ := register(t, svc, "ana@example.com")

	// Disable by rewriting the row: no service path flips the flag.
	require.NoError(t, repo.DeleteUser(ctx, user.ID))
	disabled := &core.User{Email: "ana@example.com", PasswordHash: user.PasswordHash, IsActive: false}
	require.NoError(t, repo.CreateUser(ctx, disabled))

	// Reported as disabled even with the wrong password.
	_, _, err := svc.Login(ctx, "ana@example.com", "wrongpass99")
	assert.ErrorIs(t, err, core.ErrAccountDisabled)
}

func TestLogoutAndRefresh(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	_, pair := register(t, svc, "ana@example.com")

	// The refresh token works until revoked.
	access, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	require.NoError(t, svc.Logout(ctx, pair.Refresh))
	// Revoking twice is fine.
	require.NoError(t, svc.Logout(ctx, pair.Refresh))

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newAccountService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAccountService(t)
	_, pair := register(t, svc, "ana@example.com")

	_, err := svc.Refresh(context.Background(), pair.Access)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestRefreshAfterAccountDeleted(t *testing.T) {
	svc, repo := newAccountService(t)
	ctx := context.Background()
	user, pair := register(t, svc, "ana@example.com")

	require.NoError(t, repo.DeleteUser(ctx, user.ID))

	_, err := svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	user, _ := register(t, svc, "ana@example.com")

	updated, err := svc.UpdateProfile(ctx, user.ID, "  Anabel ", "Ruiz")
	require.NoError(t, err)
	assert.Equal(t, "Anabel", updated.FirstName)
	assert.Equal(t, "Ruiz", updated.LastName)
	assert.Equal(t, "ana@example.com", updated.Email)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()
	user, _ := register(t, svc, "ana@example.com")

	err := svc.ChangePassword(ctx, user.ID, "wrongpass99", "newsecret22", "newsecret22")
	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "old_password")

	err = svc.ChangePassword(ctx, user.ID, "correcthorse1", "short", "short")
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "password")

	err = svc.ChangePassword(ctx, user.ID, "correcthorse1", "newsecret22", "newsecret23")
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "new_password")

	// A rejected confirmation must leave the old password working.
	_, _, err = svc.Login(ctx, "ana@example.com", "correcthorse1")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "correcthorse1", "newsecret22", "newsecret22"))

	_, _, err = svc.Login(ctx, "ana@example.com", "correcthorse1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ana@example.com", "newsecret22")
	assert.NoError(t, err)
}

func TestCreateSuperuser(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	user, err := svc.CreateSuperuser(ctx, "root@Example.COM", "adminsecret1", "Root", "Admin")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.Equal(t, "root@example.com", user.Email)

	_, err = svc.CreateSuperuser(ctx, "root@example.com", "adminsecret1", "", "")
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)
}
