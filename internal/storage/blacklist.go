package storage

import (
	"context"
	"fmt"
	"time"
)

// BlacklistToken records a revoked refresh token by its jti. Revoking the
// same token twice is not an error.
func (r *SQLiteRepository) BlacklistToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO token_blacklist (jti, user_id, expires_at, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(jti) DO NOTHING`,
		jti, userID, encodeTime(expiresAt), encodeTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether the jti has been revoked.
func (r *SQLiteRepository) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM token_blacklist WHERE jti = ?", jti).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return count > 0, nil
}

// PruneExpiredTokens drops blacklist rows whose tokens have expired on
// their own. Expired tokens fail signature validation regardless, so the
// rows only waste space.
func (r *SQLiteRepository) PruneExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM token_blacklist WHERE expires_at < ?", encodeTime(now))
	if err != nil {
		return 0, fmt.Errorf("prune expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}
