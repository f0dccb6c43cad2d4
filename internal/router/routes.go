package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/handler"
)

// Handlers groups everything the API table points at.
type Handlers struct {
	Auth    *handler.AuthHandler
	Index   echo.HandlerFunc
	Metrics echo.HandlerFunc // nil disables /metrics
}

// API builds the service's route table. Unauthenticated operations live
// under /v1/auth and /v1/signup, the profile endpoint is protected.
func API(h Handlers) *Table {
	t := NewTable(
		Route{Method: http.MethodGet, Path: "/", Access: Public, Handler: h.Index},
		Route{Method: http.MethodGet, Path: "/healthz", Access: Public, Handler: handler.Health},

		Route{Method: http.MethodPost, Path: "/v1/signup", Access: Public, Handler: h.Auth.Signup},
		Route{Method: http.MethodPost, Path: "/v1/auth/login", Access: Public, Handler: h.Auth.Login},
		Route{Method: http.MethodPost, Path: "/v1/auth/refresh-token", Access: Public, Handler: h.Auth.Refresh},
		Route{Method: http.MethodPost, Path: "/v1/auth/request-password-reset", Access: Public, Handler: h.Auth.RequestPasswordReset},
		Route{Method: http.MethodPost, Path: "/v1/auth/reset-password", Access: Public, Handler: h.Auth.ResetPassword},

		Route{Method: http.MethodGet, Path: "/v1/auth/me", Access: Protected, Handler: h.Auth.Me},
	)
	if h.Metrics != nil {
		t.Add(Route{Method: http.MethodGet, Path: "/metrics", Access: Public, Handler: h.Metrics})
	}
	return t
}
