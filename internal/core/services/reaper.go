package services

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/middleware"
)

// StartReaper runs the stale-claim sweeper and the session purge on a fixed
// interval until ctx is cancelled. A failed sweep is logged and retried on
// the next tick; inventory correctness never depends on the sweep timing,
// only liveness does.
func StartReaper(ctx context.Context, sweeper portssvc.SweeperSvc, sessions portssvc.SessionSvc, interval time.Duration, logger *slog.Logger) {
	ctx = middleware.WithLogger(ctx, logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Stale claim reaper started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stale claim reaper stopped")
			return
		case <-ticker.C:
			if _, err := sweeper.SweepStaleClaims(ctx); err != nil {
				logger.Error("Stale claim sweep failed", slog.String("error", err.Error()))
			}
			if _, err := sessions.PurgeExpired(ctx); err != nil {
				logger.Error("Session purge failed", slog.String("error", err.Error()))
			}
		}
	}
}
