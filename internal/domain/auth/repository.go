package auth

import (
	"context"
	"time"
)

type RefreshTokenRepository interface {
	Store(ctx context.Context, token RefreshToken) error
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string, revokedAt time.Time) error
	RevokeAll(ctx context.Context, userID int64, revokedAt time.Time) error
}

type PasswordResetRepository interface {
	Store(ctx context.Context, token PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
}
