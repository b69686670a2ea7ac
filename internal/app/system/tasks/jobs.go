// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	notificationstore "github.com/dalemusser/threadhub/internal/app/store/notifications"
	"github.com/dalemusser/threadhub/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// readNotificationRetention is how long read notifications stay around
// before pruning.
const readNotificationRetention = 30 * 24 * time.Hour

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// ReadNotificationPruneJob creates a job that deletes notifications
// read more than thirty days ago. Unread notifications are kept.
func ReadNotificationPruneJob(notifStore *notificationstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "read-notification-prune",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-readNotificationRetention)
			count, err := notifStore.DeleteReadBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned read notifications", zap.Int64("count", count))
			}
			return nil
		},
	}
}
