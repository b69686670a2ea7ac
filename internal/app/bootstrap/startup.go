// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	notificationstore "github.com/dalemusser/threadhub/internal/app/store/notifications"
	"github.com/dalemusser/threadhub/internal/app/store/oauthstate"
	"github.com/dalemusser/threadhub/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// jobRunner holds the background job runner between Startup and
// Shutdown.
var jobRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It starts the background maintenance jobs: pruning expired OAuth
// state tokens and old read notifications.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.ThreadHubMongoDatabase

	jobRunner = tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
		tasks.ReadNotificationPruneJob(notificationstore.New(db), logger),
	)
	jobRunner.Start()

	return nil
}
