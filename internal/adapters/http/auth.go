package httpadapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

const clientIDHeader = "X-Client-Id"

type identityContextKey struct{}

func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok
}

type authClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// identityMiddleware resolves the caller before any handler runs. A signed
// bearer token wins; otherwise the opaque X-Client-Id header maps to a
// stable guest identity. Requests carrying neither are rejected, since
// every case needs an owner.
func (rt *Router) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := rt.resolveIdentity(r)
		if err != nil {
			writeError(w, domain.WrapError(domain.ErrForbidden, "authenticate", err))
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (rt *Router) resolveIdentity(r *http.Request) (domain.Identity, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		return rt.identityFromBearer(header)
	}
	if clientKey := strings.TrimSpace(r.Header.Get(clientIDHeader)); clientKey != "" {
		return rt.guests.Resolve(r.Context(), clientKey)
	}
	return domain.Identity{}, fmt.Errorf("no credentials presented")
}

func (rt *Router) identityFromBearer(header string) (domain.Identity, error) {
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return domain.Identity{}, fmt.Errorf("authorization header is not a bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	var claims authClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return rt.jwtSecret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("token is not valid")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("token role: %w", err)
	}
	return domain.Identity{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: role,
	}, nil
}
