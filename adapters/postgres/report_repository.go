package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	apperrors "voteaudit/internal/errors"
	"voteaudit/ports"

	"github.com/jmoiron/sqlx"
)

// ReportRepositoryImpl implements ReportStore over sqlx
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportStore {
	return &ReportRepositoryImpl{db: db}
}

// Save inserts a finished report; saving the same run twice fails
func (r *ReportRepositoryImpl) Save(ctx context.Context, source string, report *anomaly.AnomalyReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode report")
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO anomaly_reports (run_id, source, generated_at, total_units, flagged_units, risk_level, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), report.Metadata.RunID.String(), source, report.Metadata.GeneratedAt.UTC(),
		report.Metadata.TotalUnits, report.Metadata.FlaggedUnits, string(report.Risk.Level), string(raw))
	if err != nil {
		return apperrors.DatabaseError("insert report "+report.Metadata.RunID.String(), err)
	}
	return nil
}

// Get loads the full report for a run
func (r *ReportRepositoryImpl) Get(ctx context.Context, id core.RunID) (*anomaly.AnomalyReport, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, r.db.Rebind(`SELECT report FROM anomaly_reports WHERE run_id = ?`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WithCode(apperrors.CodeNotFound, core.NewNotFoundError("report", id.String()))
	}
	if err != nil {
		return nil, apperrors.DatabaseError("select report "+id.String(), err)
	}

	var report anomaly.AnomalyReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, apperrors.Wrapf(err, "failed to decode report %s", id)
	}
	return &report, nil
}

// List returns report summaries, newest first
func (r *ReportRepositoryImpl) List(ctx context.Context, filters ports.ReportFilters) ([]ports.ReportSummary, error) {
	query := `
		SELECT run_id, source, generated_at, total_units, flagged_units, risk_level
		FROM anomaly_reports
	`
	var args []interface{}
	if filters.RiskLevel != nil {
		query += " WHERE risk_level = ?"
		args = append(args, string(*filters.RiskLevel))
	}
	query += " ORDER BY generated_at DESC, run_id"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	summaries := []ports.ReportSummary{}
	if err := r.db.SelectContext(ctx, &summaries, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.DatabaseError("list reports", err)
	}
	return summaries, nil
}
