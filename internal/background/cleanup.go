package background

import (
	"context"
	"log/slog"
	"time"
)

// RefreshTokenPurger deletes refresh-token rows that expired before a cutoff
type RefreshTokenPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// InviteExpirer flips overdue PENDING invites to EXPIRED
type InviteExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// CleanupManager periodically purges long-expired refresh tokens and marks
// stale invites expired
type CleanupManager struct {
	tokens    RefreshTokenPurger
	invites   InviteExpirer
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager. Refresh tokens are kept
// for retention past their expiry so the audit trail can still resolve them.
func NewCleanupManager(
	tokens RefreshTokenPurger,
	invites InviteExpirer,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		tokens:    tokens,
		invites:   invites,
		logger:    logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := cm.now()

	deleted, err := cm.tokens.DeleteExpiredBefore(cleanupCtx, now.Add(-cm.retention))
	if err != nil {
		cm.logger.Error("failed to purge expired refresh tokens", slog.Any("error", err))
	} else if deleted > 0 {
		cm.logger.Info("expired refresh tokens purged", slog.Int64("rows_deleted", deleted))
	}

	expired, err := cm.invites.ExpireStale(cleanupCtx, now)
	if err != nil {
		cm.logger.Error("failed to expire stale invites", slog.Any("error", err))
	} else if expired > 0 {
		cm.logger.Info("stale invites expired", slog.Int64("rows_updated", expired))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
