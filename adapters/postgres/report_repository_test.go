package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	"voteaudit/internal/detectors"
	apperrors "voteaudit/internal/errors"
	"voteaudit/internal/migration"
	"voteaudit/internal/testkit"
	"voteaudit/ports"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))
	return db
}

func generatedReport(t *testing.T, at time.Time) *anomaly.AnomalyReport {
	t.Helper()
	units, err := testkit.NewElectionGenerator(testkit.DefaultElectionConfig()).Generate()
	require.NoError(t, err)
	report, err := detectors.NewEngine(anomaly.DefaultThresholds(), false).Run(context.Background(), units)
	require.NoError(t, err)
	report.Metadata.RunID = core.NewRunID()
	report.Metadata.GeneratedAt = at
	return report
}

func TestReportRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(openSQLite(t))

	base := time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)
	older := generatedReport(t, base)
	newer := generatedReport(t, base.Add(time.Hour))
	newer.Risk.Level = anomaly.RiskCritical

	require.NoError(t, repo.Save(ctx, "older.xlsx", older))
	require.NoError(t, repo.Save(ctx, "newer.xlsx", newer))

	t.Run("get round-trips the report", func(t *testing.T) {
		got, err := repo.Get(ctx, older.Metadata.RunID)
		require.NoError(t, err)
		want, _ := json.Marshal(older)
		have, _ := json.Marshal(got)
		assert.JSONEq(t, string(want), string(have))
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := repo.List(ctx, ports.ReportFilters{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.Metadata.RunID, list[0].RunID)
		assert.Equal(t, "newer.xlsx", list[0].Source)
		assert.Equal(t, older.Metadata.TotalUnits, list[1].TotalUnits)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		level := anomaly.RiskCritical
		list, err := repo.List(ctx, ports.ReportFilters{RiskLevel: &level})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, newer.Metadata.RunID, list[0].RunID)

		page, err := repo.List(ctx, ports.ReportFilters{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, older.Metadata.RunID, page[0].RunID)
	})

	t.Run("duplicate run rejected", func(t *testing.T) {
		err := repo.Save(ctx, "again", older)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := repo.Get(ctx, core.NewRunID())
		require.Error(t, err)
		assert.True(t, core.IsNotFoundError(err))
		assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
	})
}

func TestReportRepository_PostgresQueries(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := NewReportRepository(sqlx.NewDb(mockDB, "postgres"))
	ctx := context.Background()

	t.Run("list uses dollar placeholders", func(t *testing.T) {
		level := anomaly.RiskHigh
		at := time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"run_id", "source", "generated_at", "total_units", "flagged_units", "risk_level"}).
			AddRow("r1", "feed", at, 400, 12, "HIGH")
		mock.ExpectQuery(regexp.QuoteMeta("WHERE risk_level = $1 ORDER BY generated_at DESC, run_id LIMIT $2")).
			WithArgs("HIGH", 10).
			WillReturnRows(rows)

		list, err := repo.List(ctx, ports.ReportFilters{RiskLevel: &level, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, core.RunID("r1"), list[0].RunID)
		assert.Equal(t, anomaly.RiskHigh, list[0].RiskLevel)
	})

	t.Run("driver failure maps to database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT report FROM anomaly_reports WHERE run_id = $1")).
			WithArgs("r2").
			WillReturnError(assert.AnError)

		_, err := repo.Get(ctx, core.RunID("r2"))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
