package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobsite/internal/common"
	"jobsite/internal/domain/auth"
	"jobsite/internal/security"
)

type RefreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Store(ctx context.Context, token auth.RefreshToken) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.UserID, security.HashToken(token.Token), token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to store refresh token", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT id, user_id, expires_at, created_at, revoked_at FROM refresh_tokens WHERE token_hash = $1`, security.HashToken(token))
	var (
		rt        auth.RefreshToken
		revokedAt sql.NullTime
	)
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt, &revokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "refresh token not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load refresh token", err)
	}
	if revokedAt.Valid {
		rt.RevokedAt = &revokedAt.Time
	}
	rt.Token = token
	return &rt, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $1) WHERE token_hash = $2`, revokedAt, security.HashToken(token))
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to revoke refresh token", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "refresh token not found", sql.ErrNoRows)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAll(ctx context.Context, userID int64, revokedAt time.Time) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, revokedAt, userID)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to revoke refresh tokens", err)
	}
	return nil
}

type PasswordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Store(ctx context.Context, token auth.PasswordResetToken) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.UserID, security.HashToken(token.Token), token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to store reset token", err)
	}
	return nil
}

func (r *PasswordResetRepository) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT id, user_id, expires_at, created_at, used_at FROM password_reset_tokens WHERE token_hash = $1`, security.HashToken(token))
	var (
		rt     auth.PasswordResetToken
		usedAt sql.NullTime
	)
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt, &usedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "reset token not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load reset token", err)
	}
	if usedAt.Valid {
		rt.UsedAt = &usedAt.Time
	}
	rt.Token = token
	return &rt, nil
}

// MarkUsed fails with not found when the token was already consumed.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`, usedAt, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to mark reset token used", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "reset token not found", sql.ErrNoRows)
	}
	return nil
}
