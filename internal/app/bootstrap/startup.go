// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratasite/internal/app/resources"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	mediastore "github.com/dalemusser/stratasite/internal/app/store/media"
	"github.com/dalemusser/stratasite/internal/app/system/integrity"
	"github.com/dalemusser/stratasite/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It loads the shared templates and starts the background task runner
// (integrity sweep and rate-limit window cleanup).
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	// Note: Indexes are created in EnsureSchema via indexes.EnsureAll().

	startTaskRunner(appCfg, deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.RateLimitCleanupJob(deps.MongoDatabase, logger))
	if appCfg.IntegritySweepInterval > 0 {
		taskRunner.Register(tasks.IntegritySweepJob(NewSweeper(deps, logger), appCfg.IntegritySweepInterval))
	} else {
		logger.Info("periodic integrity sweep disabled")
	}

	taskRunner.Start()
}

// NewSweeper builds the integrity sweeper over the content collections,
// the media records, and the blob store.
func NewSweeper(deps DBDeps, logger *zap.Logger) *integrity.Sweeper {
	return integrity.New(integrity.Config{
		DB:     deps.MongoDatabase,
		Source: contentstore.New(deps.MongoDatabase),
		Media:  mediastore.New(deps.MongoDatabase),
		Blobs:  deps.Blobs,
		Logger: logger,
	})
}
