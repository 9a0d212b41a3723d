// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/bluewavedigital/donorpulse/internal/app/resources"
	"github.com/bluewavedigital/donorpulse/internal/app/system/tasks"
	"github.com/bluewavedigital/donorpulse/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// This is the place for one-time initialization that depends on having live
// database connections and fully loaded configuration. Unlike ConnectDB and
// EnsureSchema which focus on infrastructure, Startup is for application-level
// initialization.
//
// Common uses for Startup:
//   - Load shared templates from the resources directory
//   - Warm caches with frequently accessed data
//   - Set up background workers or scheduled tasks
//   - Perform health checks on dependencies
//
// Returning a non-nil error will abort startup and prevent the server from
// starting. Returning nil signals that initialization succeeded.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	// Orgs without a configured timezone report in this one.
	if appCfg.DefaultOrgTimezone != "" {
		models.DefaultTimezone = appCfg.DefaultOrgTimezone
	}

	// Note: Indexes are created in EnsureSchema via indexes.EnsureAll(),
	// and seed data (settings, bootstrap admin) is written there too.

	// Start background task runner
	startTaskRunner(deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, logger *zap.Logger) {
	db := deps.MongoDatabase
	taskRunner = tasks.New(logger)

	// Remove expired sessions
	taskRunner.Register(tasks.SessionCleanupJob(db, logger))

	// Close sessions inactive for 30 minutes (checked every 5 minutes)
	taskRunner.Register(tasks.InactiveSessionCleanupJob(db, logger, 30*time.Minute))

	// Periodically ping the analytics backend so outages show up in the
	// logs before a user hits a broken dashboard.
	taskRunner.Register(tasks.BackendHealthJob(deps.Backend.Ping, logger))

	// Start running jobs
	taskRunner.Start()
}
