package main

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/handler"
	"github.com/iliyamo/identity-service/internal/i18n"
	"github.com/iliyamo/identity-service/internal/middleware"
	"github.com/iliyamo/identity-service/internal/router"
	"github.com/iliyamo/identity-service/internal/service"
	"github.com/iliyamo/identity-service/internal/utils"
)

// newEcho assembles the HTTP stack: recovery, request logging, CORS,
// language negotiation, the authorization guard and the route table. A nil
// registry leaves /metrics unregistered.
func newEcho(cfg config.Config, logger *slog.Logger, bundle *i18n.Bundle, svc *service.AuthService, registry *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(svc, bundle, logger),
		Index: handler.Index(bundle),
	}
	if registry != nil {
		handlers.Metrics = echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	table := router.API(handlers)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORS.Origins,
		AllowMethods: cfg.CORS.Methods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
	}))
	e.Use(middleware.Locale(bundle))
	e.Use(middleware.Guard(middleware.GuardConfig{
		Routes:   table,
		Verifier: utils.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration),
		Reject:   handler.Unauthenticated(bundle),
	}))

	table.Register(e)
	return e
}
