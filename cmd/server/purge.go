package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewPurgeResetsCmd creates the purge-resets subcommand.
func NewPurgeResetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-resets",
		Short: "Clear expired password reset tokens",
		Long: `Clear every password reset token whose expiry has passed. Expired
tokens are already unusable; this only removes them from storage.`,
		Args: cobra.NoArgs,
		RunE: runPurgeResets,
	}
}

func runPurgeResets(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	users, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newAuthService(cfg, users, logger, serviceDeps{})
	if err != nil {
		return oops.Code("WIRING_FAILED").Wrap(err)
	}
	n, err := svc.PurgeExpiredResets(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Purged %d expired reset token(s)\n", n)
	return nil
}

type resetPurger interface {
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

// runSweep purges expired reset tokens every interval until ctx ends.
func runSweep(ctx context.Context, p resetPurger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredResets(ctx)
			if err != nil {
				logger.WarnContext(ctx, "reset sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "reset sweep", "purged", n)
			}
		}
	}
}
