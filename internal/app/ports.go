package app

import (
	"context"
	"io"
	"log/slog"

	"jobsite/internal/domain/user"
)

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ResumeStore persists uploaded resumes and hands back an opaque reference.
type ResumeStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// Notifier sends account emails. It is only called after the triggering
// write has committed.
type Notifier interface {
	Welcome(ctx context.Context, account user.User) error
	PasswordReset(ctx context.Context, account user.User, link string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
