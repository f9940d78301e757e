package handlers

import (
	"net/http"
	"strings"
	"time"

	"jobsite/internal/app"
	"jobsite/internal/common"
	"jobsite/internal/domain/auth"
	"jobsite/internal/domain/user"
	"jobsite/internal/http/response"
)

type AuthHandler struct {
	auth  *app.AuthService
	users *app.UserService
}

func NewAuthHandler(auth *app.AuthService, users *app.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    string       `json:"expires_at"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	RoleDisplay string `json:"role_display"`
	IsStaff     bool   `json:"is_staff"`
	CreatedAt   string `json:"created_at"`
}

func newUserResponse(account *user.User) userResponse {
	return userResponse{
		UID:         account.UID.String(),
		Username:    account.Username,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Phone:       account.Phone,
		Role:        string(account.Role),
		RoleDisplay: account.Role.Display(),
		IsStaff:     account.IsStaff,
		CreatedAt:   account.CreatedAt.Format(time.RFC3339),
	}
}

func newTokenResponse(pair *auth.TokenPair, account *user.User) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.Format(time.RFC3339),
		User:         newUserResponse(account),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	created, err := h.auth.Register(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, newUserResponse(created))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "This field is required."
	}
	if req.Password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		response.Error(w, common.NewValidationError("invalid request", fields))
		return
	}
	pair, account, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newTokenResponse(pair, account))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"refresh_token": "refresh_token is required"}))
		return
	}
	pair, account, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newTokenResponse(pair, account))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"refresh_token": "refresh_token is required"}))
		return
	}
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"email": "This field is required."}))
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, detailResponse{Detail: "Password reset email has been sent."})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req app.ResetPasswordInput
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, detailResponse{Detail: "Password has been reset successfully."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.users.Me(r.Context(), actorFrom(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newUserResponse(account))
}
