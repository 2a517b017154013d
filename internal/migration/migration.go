package migration

import (
	"context"

	"voteaudit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the report store schema. Statements are idempotent
// and run for postgres or sqlite depending on the handle's driver.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createReportsTable(ctx, db); err != nil {
		return errors.DatabaseError("create anomaly_reports table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("create indexes", err)
	}

	return nil
}

func isPostgres(db *sqlx.DB) bool {
	switch db.DriverName() {
	case "postgres", "pgx":
		return true
	}
	return false
}

func (r *MigrationRunner) createReportsTable(ctx context.Context, db *sqlx.DB) error {
	reportType := "TEXT"
	tsType := "TIMESTAMP"
	if isPostgres(db) {
		reportType = "JSONB"
		tsType = "TIMESTAMP WITH TIME ZONE"
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS anomaly_reports (
			run_id VARCHAR(36) PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			generated_at `+tsType+` NOT NULL,
			total_units INTEGER NOT NULL,
			flagged_units INTEGER NOT NULL,
			risk_level VARCHAR(16) NOT NULL,
			report `+reportType+` NOT NULL,
			created_at `+tsType+` DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_anomaly_reports_generated_at ON anomaly_reports(generated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_anomaly_reports_risk_level ON anomaly_reports(risk_level)`,
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}
