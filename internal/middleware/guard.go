package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/utils"
)

// RouteMarker tells the guard which routes skip authentication. Routes it
// does not know are protected.
type RouteMarker interface {
	IsPublic(method, path string) bool
}

// TokenVerifier checks an access token.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// GuardConfig wires the authorization guard.
type GuardConfig struct {
	Routes   RouteMarker
	Verifier TokenVerifier
	// Reject writes the response for an unauthenticated request.
	Reject func(c echo.Context) error
}

// Guard returns a global Echo middleware that lets public routes through and
// requires a valid Bearer access token everywhere else. It must be added
// with e.Use so that c.Path() holds the matched route pattern. The reason a
// token was refused is never revealed to the client. On success the claims
// are available via c.Get(ClaimsKey), c.Get(UserIDKey) and ClaimsFrom on the
// request context.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	reject := cfg.Reject
	if reject == nil {
		reject = func(echo.Context) error { return echo.ErrUnauthorized }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Routes.IsPublic(c.Request().Method, c.Path()) {
				return next(c)
			}

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(c)
			}
			claims, err := cfg.Verifier.Verify(raw)
			if err != nil {
				return reject(c)
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
