package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
	UserContextKey   contextKey = "user"
)

// AuthMiddleware validates the Authorization bearer token and stashes the
// parsed claims on the request context. Access tokens are header-only; the
// cookie carries the refresh token, never the access token.
func AuthMiddleware(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			var raw string
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				raw = strings.TrimSpace(auth[7:])
			}
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "missing access token")
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "invalid access token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole loads the authenticated user and rejects the request unless the
// account holds one of the given roles. Must run after AuthMiddleware.
func RequireRole(users repository.UserRepository, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := map[domain.Role]struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "missing access token")
				return
			}
			user, err := users.FindByID(claims.Subject)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "unknown account")
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				response.Error(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*domain.User)
	return u, ok
}
