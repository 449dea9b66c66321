package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gastos/internal/core"
)

const userColumns = "id, email, password_hash, first_name, last_name, is_active, is_staff, is_superuser, date_joined, updated_at"

// CreateUser inserts a new user and fills in its ID and timestamps.
// A duplicate email returns core.ErrDuplicateEmail.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (email, password_hash, first_name, last_name, is_active, is_staff, is_superuser, date_joined, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName,
		boolToInt(u.IsActive), boolToInt(u.IsStaff), boolToInt(u.IsSuperuser),
		encodeTime(now), encodeTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}

	u.ID = id
	u.DateJoined = now
	u.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, encodeTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// SetPassword replaces the stored password hash of a user.
func (r *SQLiteRepository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, encodeTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes a user together with their expenses and revoked
// tokens in one transaction.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("delete user expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM token_blacklist WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

func scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	var active, staff, superuser int
	var joined, updated string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&active, &staff, &superuser, &joined, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.IsActive = active != 0
	u.IsStaff = staff != 0
	u.IsSuperuser = superuser != 0
	if u.DateJoined, err = decodeTime(joined); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
