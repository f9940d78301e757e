package app

import (
	"context"

	"jobsite/internal/common"
	"jobsite/internal/domain/policy"
	"jobsite/internal/domain/user"
	"jobsite/internal/security"
)

// UserService turns access tokens into actors and serves the current user.
type UserService struct {
	users       user.Repository
	jwtProvider *security.JWTProvider
}

func NewUserService(users user.Repository, jwtProvider *security.JWTProvider) *UserService {
	return &UserService{users: users, jwtProvider: jwtProvider}
}

// ResolveActor validates an access token and loads the account it names, so
// role and staff changes apply without waiting for token expiry.
func (s *UserService) ResolveActor(ctx context.Context, accessToken string) (policy.Actor, error) {
	claims, err := s.jwtProvider.Parse(accessToken)
	if err != nil {
		return policy.Actor{}, common.NewError(common.CodeUnauthorized, "invalid token", err)
	}
	uid, err := common.ParseUUID(claims.Sub)
	if err != nil {
		return policy.Actor{}, common.NewError(common.CodeUnauthorized, "invalid token subject", err)
	}
	account, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if common.Is(err, common.CodeNotFound) {
			return policy.Actor{}, common.NewError(common.CodeUnauthorized, "user no longer exists", nil)
		}
		return policy.Actor{}, err
	}
	return policy.ActorFor(*account), nil
}

func (s *UserService) Me(ctx context.Context, actor policy.Actor) (*user.User, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, actor.UserID)
}
