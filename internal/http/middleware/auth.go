package middleware

import (
	"context"
	"net/http"
	"strings"

	"jobsite/internal/common"
	"jobsite/internal/domain/policy"
	"jobsite/internal/domain/user"
	"jobsite/internal/http/response"
)

type actorKey struct{}

// ActorResolver turns a bearer token into the acting user.
type ActorResolver interface {
	ResolveActor(ctx context.Context, accessToken string) (policy.Actor, error)
}

type AuthMiddleware struct {
	resolver ActorResolver
}

func NewAuthMiddleware(resolver ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Error(w, common.NewError(common.CodeUnauthorized, "missing authorization header", nil))
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			response.Error(w, common.NewError(common.CodeUnauthorized, "invalid authorization header", nil))
			return
		}
		actor, err := m.resolver.ResolveActor(r.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole rejects actors without the given role before the handler runs.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	check := policy.RequireAuthenticated
	switch role {
	case user.RoleRecruiter:
		check = policy.RequireRecruiter
	case user.RoleCandidate:
		check = policy.RequireCandidate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			if err := check(actor); err != nil {
				response.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(policy.Actor)
	return actor, ok
}
