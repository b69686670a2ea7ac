// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	authgooglefeature "github.com/dalemusser/threadhub/internal/app/features/authgoogle"
	channelsfeature "github.com/dalemusser/threadhub/internal/app/features/channels"
	chatfeature "github.com/dalemusser/threadhub/internal/app/features/chat"
	dmsfeature "github.com/dalemusser/threadhub/internal/app/features/dms"
	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/threadhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/threadhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/threadhub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/threadhub/internal/app/features/members"
	notificationsfeature "github.com/dalemusser/threadhub/internal/app/features/notifications"
	searchfeature "github.com/dalemusser/threadhub/internal/app/features/search"
	uploadsfeature "github.com/dalemusser/threadhub/internal/app/features/uploads"
	workspacesfeature "github.com/dalemusser/threadhub/internal/app/features/workspaces"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// ThreadHub mounts feature routers for authentication, workspaces and
// their memberships, channels and channel messages, direct messages,
// notifications, search, and image uploads.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.ThreadHubMongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures disabled accounts and profile updates take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// File storage for image attachments.
	fileStore, err := buildStorage(appCfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.ThreadHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Workspaces and everything scoped to one workspace
	workspacesHandler := workspacesfeature.NewHandler(db, errLog, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler, sessionMgr))

	membersHandler := membersfeature.NewHandler(db, errLog, logger)
	r.Mount("/workspaces/{id}", membersfeature.Routes(membersHandler, sessionMgr))

	channelsHandler := channelsfeature.NewHandler(db, errLog, logger)
	r.Mount("/workspaces/{id}/channels", channelsfeature.WorkspaceRoutes(channelsHandler, sessionMgr))

	dmsHandler := dmsfeature.NewHandler(db, errLog, logger)
	r.Mount("/workspaces/{id}/dms", dmsfeature.WorkspaceRoutes(dmsHandler, sessionMgr))

	searchHandler := searchfeature.NewHandler(db, errLog, logger)
	r.Mount("/workspaces/{id}/search", searchfeature.WorkspaceRoutes(searchHandler, sessionMgr))

	// Channels and channel messages
	r.Mount("/channels", channelsfeature.Routes(channelsHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(db, errLog, logger)
	r.Mount("/channels/{channelID}/messages", chatfeature.Routes(chatHandler, sessionMgr))

	// Direct message threads
	r.Mount("/dms", dmsfeature.Routes(dmsHandler, sessionMgr))

	// Notification inbox
	notificationsHandler := notificationsfeature.NewHandler(db, errLog, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	// Image attachments
	uploadsHandler := uploadsfeature.NewHandler(fileStore, errLog, logger)
	r.Mount("/uploads", uploadsfeature.Routes(uploadsHandler, sessionMgr))

	return r, nil
}

// buildStorage picks the file storage backend from app config.
func buildStorage(appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		})
	default:
		return storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
	}
}
