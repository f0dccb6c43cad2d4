package middleware

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	"github.com/iliyamo/identity-service/internal/i18n"
)

// LanguageMatcher negotiates a supported language from Accept-Language.
type LanguageMatcher interface {
	Match(acceptLanguage string) language.Tag
}

// Locale stores the negotiated language in the request context and echoes
// it in Content-Language.
func Locale(m LanguageMatcher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tag := m.Match(c.Request().Header.Get("Accept-Language"))
			req := c.Request()
			c.SetRequest(req.WithContext(i18n.WithLanguage(req.Context(), tag)))
			c.Response().Header().Set("Content-Language", tag.String())
			return next(c)
		}
	}
}
