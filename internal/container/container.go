package container

import (
	"context"
	"fmt"
	"os"

	"voteaudit/adapters/postgres"
	"voteaudit/app"
	"voteaudit/internal"
	"voteaudit/internal/api"
	"voteaudit/internal/config"
	"voteaudit/internal/detectors"
	"voteaudit/internal/migration"
	"voteaudit/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	ReportStore ports.ReportStore

	Engine *detectors.Engine
	Audit  *app.AuditService
	SSEHub *api.SSEHub
}

// New creates a new dependency injection container. The configured logger
// also replaces internal.DefaultLogger so adapters log at the same level.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLoggerTo(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)
	internal.DefaultLogger = logger

	c := &Container{
		Config: cfg,
		Logger: logger,
		Engine: detectors.NewEngine(cfg.Analysis.Thresholds, cfg.Analysis.Parallel),
	}
	c.Audit = app.NewAuditService(c.Engine, nil, logger)
	return c, nil
}

// InitWithDatabase opens the report store and migrates its schema. It is a
// no-op when no database URL is configured.
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Info("[Container] no database configured; reports are not persisted")
		return nil
	}

	db, err := postgres.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return err
	}
	c.DB = db

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.ReportStore = postgres.NewReportRepository(db)
	c.Audit = app.NewAuditService(c.Engine, c.ReportStore, c.Logger)
	if c.SSEHub != nil {
		c.Audit.SetPublisher(c.SSEHub)
	}

	c.Logger.Info("[Container] report store ready (%s)", c.Config.Database.Driver)
	return nil
}

// EnableEvents starts the SSE hub and attaches it to the audit service
func (c *Container) EnableEvents() *api.SSEHub {
	if c.SSEHub == nil {
		c.SSEHub = api.NewSSEHub(c.Logger)
		c.Audit.SetPublisher(c.SSEHub)
	}
	return c.SSEHub
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
		c.SSEHub = nil
	}

	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
