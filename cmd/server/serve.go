package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/i18n"
	"github.com/iliyamo/identity-service/internal/logging"
	"github.com/iliyamo/identity-service/internal/mailer"
	"github.com/iliyamo/identity-service/internal/metrics"
	"github.com/iliyamo/identity-service/internal/queue"
	"github.com/iliyamo/identity-service/internal/repository"
	"github.com/iliyamo/identity-service/internal/service"
	"github.com/iliyamo/identity-service/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. When RABBITMQ_URL is set reset emails are queued
and, unless RABBITMQ_CONSUMER_ENABLED=false, delivered by an in-process
consumer; otherwise they are sent directly over SMTP.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

// serviceDeps are the optional collaborators of the auth service. Zero
// values are filled from configuration.
type serviceDeps struct {
	Notifier service.Notifier
	Messages *i18n.Bundle
	Lock     service.ResetLocker
	Metrics  service.Recorder
}

func newAuthService(cfg config.Config, users service.CredentialStore, logger *slog.Logger, deps serviceDeps) (*service.AuthService, error) {
	if deps.Messages == nil {
		bundle, err := i18n.Load(cfg.App.DefaultLocale)
		if err != nil {
			return nil, err
		}
		deps.Messages = bundle
	}
	if deps.Notifier == nil {
		deps.Notifier = notifierFor(cfg, logger)
	}
	return service.NewAuthService(service.Options{
		Users:      users,
		Access:     utils.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration),
		Refresh:    utils.NewTokenCodec(cfg.JWT.RefreshSecret, cfg.JWT.RefreshExpiration),
		Notifier:   deps.Notifier,
		Messages:   deps.Messages,
		Lock:       deps.Lock,
		Metrics:    deps.Metrics,
		Logger:     logger,
		ResetTTL:   cfg.PasswordReset.TTL(),
		ResetURL:   cfg.PasswordReset.URL,
		BcryptCost: cfg.BcryptCost,
	})
}

// notifierFor queues emails when RabbitMQ is configured and sends them
// directly otherwise.
func notifierFor(cfg config.Config, logger *slog.Logger) service.Notifier {
	if cfg.RabbitMQ.URL != "" {
		return queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue, logger)
	}
	return mailer.NewSMTPSender(cfg.Email)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	bundle, err := i18n.Load(cfg.App.DefaultLocale)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("locale", cfg.App.DefaultLocale).Wrap(err)
	}

	deps := serviceDeps{Messages: bundle}
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		deps.Lock = repository.NewResetLock(rdb, cfg.Redis.Prefix, cfg.Redis.LockTTL)
		logger.Info("redis reset lock enabled", "addr", cfg.Redis.Address())
	} else if cfg.Redis.Address() != "" {
		logger.Warn("redis unreachable; relying on database for single-use reset tokens", "addr", cfg.Redis.Address())
	}

	var registry *prometheus.Registry
	if cfg.Metrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		authMetrics, err := metrics.NewAuth(registry)
		if err != nil {
			return oops.Code("METRICS_FAILED").Wrap(err)
		}
		deps.Metrics = authMetrics
	}

	if cfg.RabbitMQ.URL != "" && cfg.RabbitMQ.ConsumerEnabled {
		smtp := mailer.NewSMTPSender(cfg.Email)
		go func() {
			err := queue.StartMailConsumer(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue, smtp, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Error(ctx, logger, "mail consumer stopped", err)
			}
		}()
	}

	svc, err := newAuthService(cfg, users, logger, deps)
	if err != nil {
		return oops.Code("WIRING_FAILED").Wrap(err)
	}

	if interval := cfg.PasswordReset.SweepInterval; interval > 0 {
		go runSweep(ctx, svc, interval, logger)
	}

	e := newEcho(cfg, logger, bundle, svc, registry)

	addr := ":" + cfg.App.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.App.Env, "db_driver", cfg.DB.Driver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").With("addr", addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_FAILED").With("operation", "shutdown").Wrap(err)
	}
	return nil
}
