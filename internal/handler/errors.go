package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/logging"
	"github.com/iliyamo/identity-service/internal/service"
)

// Translator resolves message keys for the request language.
type Translator interface {
	Translate(ctx context.Context, key string, args map[string]string) string
}

// errorResp is the body of every non-2xx response.
type errorResp struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Details []FieldError `json:"details,omitempty"`
}

// statusFor is the single place where failure kinds become HTTP statuses.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidCredentials, service.KindUnauthenticated, service.KindRefreshInvalid:
		return http.StatusUnauthorized
	case service.KindPrincipalNotFound:
		return http.StatusNotFound
	case service.KindInvalidOrExpiredResetToken, service.KindValidation:
		return http.StatusBadRequest
	case service.KindEmailTaken:
		return http.StatusConflict
	case service.KindDeliveryFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// responder writes translated error bodies and logs unexpected failures.
type responder struct {
	tr  Translator
	log *slog.Logger
}

func (r responder) fail(c echo.Context, err error) error {
	ctx := c.Request().Context()
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logging.Error(ctx, r.log, "request failed", err,
			"method", c.Request().Method, "path", c.Path(), "kind", kind.String())
	}
	return c.JSON(status, errorResp{
		Error: r.tr.Translate(ctx, service.KeyOf(err), nil),
		Code:  kind.String(),
	})
}

func (r responder) invalid(c echo.Context, vs []violation) error {
	ctx := c.Request().Context()
	details := make([]FieldError, 0, len(vs))
	for _, v := range vs {
		details = append(details, FieldError{Field: v.Field, Message: r.tr.Translate(ctx, v.Key, v.Args)})
	}
	return c.JSON(http.StatusBadRequest, errorResp{
		Error:   r.tr.Translate(ctx, "validation.failed", nil),
		Code:    service.KindValidation.String(),
		Details: details,
	})
}

func (r responder) badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResp{
		Error: r.tr.Translate(c.Request().Context(), "validation.invalidBody", nil),
		Code:  service.KindValidation.String(),
	})
}

// Unauthenticated returns the guard's rejection writer.
func Unauthenticated(tr Translator) func(c echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, errorResp{
			Error: tr.Translate(c.Request().Context(), service.ErrUnauthenticated.Key, nil),
			Code:  service.KindUnauthenticated.String(),
		})
	}
}
