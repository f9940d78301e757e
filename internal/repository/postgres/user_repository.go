package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobsite/internal/common"
	"jobsite/internal/domain/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, uid, username, email, password_hash, first_name, last_name, phone, role, is_staff, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, account user.User) (*user.User, error) {
	account.UID = common.NewUUID()
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	err := conn(ctx, r.db).QueryRowContext(ctx, `INSERT INTO users (uid, username, email, password_hash, first_name, last_name, phone, role, is_staff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		account.UID, account.Username, account.Email, account.PasswordHash, account.FirstName, account.LastName, account.Phone, account.Role, account.IsStaff, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "users_username_key" {
				return nil, common.NewValidationError("username taken", map[string]string{"username": "A user with that username already exists."})
			}
			return nil, common.NewValidationError("email taken", map[string]string{"email": "A user with this email already exists."})
		}
		return nil, common.NewError(common.CodeInternal, "failed to create user", err)
	}
	return &account, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUID(ctx context.Context, uid common.UUID) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*user.User, error) {
	var account user.User
	err := conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.UID, &account.Username, &account.Email, &account.PasswordHash,
		&account.FirstName, &account.LastName, &account.Phone, &account.Role, &account.IsStaff,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "user not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load user", err)
	}
	return &account, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to update password", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "user not found", sql.ErrNoRows)
	}
	return nil
}
