package app

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"jobsite/internal/common"
	"jobsite/internal/domain/auth"
	"jobsite/internal/domain/user"
	"jobsite/internal/security"
)

// AuthService covers registration, credential login, token rotation and the
// password reset flow.
type AuthService struct {
	users         user.Repository
	refreshTokens auth.RefreshTokenRepository
	resets        auth.PasswordResetRepository
	hasher        PasswordHasher
	jwtProvider   *security.JWTProvider
	notifier      Notifier
	tx            Transactor
	logger        *slog.Logger
	settings      AuthSettings
	clock         func() time.Time
}

type AuthSettings struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	ResetURL   string
}

func NewAuthService(users user.Repository, refreshTokens auth.RefreshTokenRepository, resets auth.PasswordResetRepository, hasher PasswordHasher, jwtProvider *security.JWTProvider, notifier Notifier, tx Transactor, logger *slog.Logger, settings AuthSettings) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		resets:        resets,
		hasher:        hasher,
		jwtProvider:   jwtProvider,
		notifier:      notifier,
		tx:            tx,
		logger:        loggerOrDefault(logger),
		settings:      settings,
		clock:         time.Now,
	}
}

type RegisterInput struct {
	Username        string `json:"username" validate:"max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Phone           string `json:"phone" validate:"max=20"`
	Role            string `json:"role" validate:"required"`
}

// Register creates the account, then sends the welcome email. When the email
// fails the created user is still returned alongside a dependency error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	fields := common.FieldErrors(in)
	if fields == nil {
		fields = map[string]string{}
	}
	if in.Password != "" && in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		fields["password"] = "Password fields didn't match."
	}
	role, ok := user.ParseRole(in.Role)
	if in.Role != "" && !ok {
		fields["role"] = "Must be one of: RECRUITER, CANDIDATE."
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid registration", fields)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.NewValidationError("email taken", map[string]string{"email": "A user with this email already exists."})
	} else if !common.Is(err, common.CodeNotFound) {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to hash password", err)
	}
	username := in.Username
	if username == "" {
		username = in.Email
	}
	created, err := s.users.Create(ctx, user.User{
		Username:     username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "auth.registered", "user_uid", created.UID, "role", created.Role)
	if err := s.notifier.Welcome(ctx, *created); err != nil {
		s.logger.ErrorContext(ctx, "welcome email failed", "user_uid", created.UID, "error", err)
		return created, common.NewError(common.CodeDependencyFailure, "account created but the welcome email could not be sent", err)
	}
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*auth.TokenPair, *user.User, error) {
	account, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, nil, common.NewError(common.CodeUnauthorized, "invalid credentials", nil)
		}
		return nil, nil, err
	}
	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, nil, common.NewError(common.CodeUnauthorized, "invalid credentials", nil)
	}
	pair, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	s.logger.InfoContext(ctx, "auth.logged_in", "user_uid", account.UID)
	return pair, account, nil
}

func (s *AuthService) Refresh(ctx context.Context, token string) (*auth.TokenPair, *user.User, error) {
	stored, err := s.refreshTokens.GetByToken(ctx, token)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return nil, nil, common.NewError(common.CodeUnauthorized, "invalid refresh token", nil)
		}
		return nil, nil, err
	}
	now := s.clock().UTC()
	if stored.RevokedAt != nil {
		return nil, nil, common.NewError(common.CodeUnauthorized, "refresh token revoked", nil)
	}
	if stored.ExpiresAt.Before(now) {
		return nil, nil, common.NewError(common.CodeUnauthorized, "refresh token expired", nil)
	}
	account, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.refreshTokens.Revoke(ctx, token, now); err != nil {
		return nil, nil, err
	}
	pair, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return pair, account, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.refreshTokens.Revoke(ctx, token, s.clock().UTC()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "auth.logged_out")
	return nil
}

// RequestPasswordReset issues a single-use token and emails the reset link.
// A delivery failure leaves the token valid.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return common.NewValidationError("email is required", map[string]string{"email": "This field is required."})
	}
	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return common.NewValidationError("unknown email", map[string]string{"email": "No user found with this email address."})
		}
		return err
	}
	value, err := security.RandomToken()
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to generate reset token", err)
	}
	now := s.clock().UTC()
	if err := s.resets.Store(ctx, auth.PasswordResetToken{
		ID:        common.NewUUID(),
		UserID:    account.ID,
		Token:     value,
		ExpiresAt: now.Add(s.settings.ResetTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "auth.password_reset_requested", "user_uid", account.UID)
	if err := s.notifier.PasswordReset(ctx, *account, s.resetLink(value, account.UID)); err != nil {
		s.logger.ErrorContext(ctx, "password reset email failed", "user_uid", account.UID, "error", err)
		return common.NewError(common.CodeDependencyFailure, "password reset email could not be sent", err)
	}
	return nil
}

type ResetPasswordInput struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ResetPassword consumes a reset token and revokes every refresh token of
// the account.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	fields := common.FieldErrors(in)
	if fields == nil {
		fields = map[string]string{}
	}
	if in.Password != "" && in.ConfirmPassword != "" && in.Password != in.ConfirmPassword {
		fields["password"] = "Password fields didn't match."
	}
	if len(fields) > 0 {
		return common.NewValidationError("invalid password reset", fields)
	}
	invalid := common.NewValidationError("invalid token", map[string]string{"token": "Invalid or expired token."})
	uid, err := common.ParseUUID(in.UID)
	if err != nil {
		return invalid
	}
	account, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return invalid
		}
		return err
	}
	stored, err := s.resets.GetByToken(ctx, in.Token)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return invalid
		}
		return err
	}
	now := s.clock().UTC()
	if stored.UserID != account.ID || !stored.Usable(now) {
		return invalid
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to hash password", err)
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, account.ID, hash); err != nil {
			return err
		}
		if err := s.resets.MarkUsed(ctx, stored.ID.String(), now); err != nil {
			return err
		}
		return s.refreshTokens.RevokeAll(ctx, account.ID, now)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "auth.password_reset", "user_uid", account.UID)
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *user.User) (*auth.TokenPair, error) {
	accessToken, expiresAt, err := s.jwtProvider.Generate(account.UID, string(account.Role), account.IsStaff, s.settings.AccessTTL)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to generate access token", err)
	}
	refreshValue, err := security.RandomToken()
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to generate refresh token", err)
	}
	now := s.clock().UTC()
	refresh := auth.RefreshToken{
		ID:        common.NewUUID(),
		UserID:    account.ID,
		Token:     refreshValue,
		ExpiresAt: now.Add(s.settings.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.refreshTokens.Store(ctx, refresh); err != nil {
		return nil, err
	}
	return &auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshValue, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) resetLink(token string, uid common.UUID) string {
	query := url.Values{}
	query.Set("token", token)
	query.Set("uid", uid.String())
	base := s.settings.ResetURL
	if strings.Contains(base, "?") {
		return base + "&" + query.Encode()
	}
	return base + "?" + query.Encode()
}
