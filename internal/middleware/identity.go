package middleware

// identity.go holds the helpers that carry the authenticated principal from
// the guard to handlers, both on the echo context and on the request's
// context.Context.

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/utils"
)

// Keys under which the guard stores the verified identity in echo.Context.
const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
)

type claimsCtxKey struct{}

// WithClaims stores verified access claims in ctx.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims.
func ClaimsFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*utils.Claims)
	return claims, ok && claims != nil
}

// SubjectFrom returns the authenticated principal id, or "" on public routes.
func SubjectFrom(c echo.Context) string {
	if v, ok := c.Get(UserIDKey).(string); ok {
		return v
	}
	return ""
}
