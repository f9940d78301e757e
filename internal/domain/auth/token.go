package auth

import (
	"time"

	"jobsite/internal/common"
)

type RefreshToken struct {
	ID        common.UUID
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PasswordResetToken is single use; only its hash is persisted.
type PasswordResetToken struct {
	ID        common.UUID
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

func (t PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
