package ports

import (
	"context"
	"time"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
)

// ReportStore persists finished reports. Reports are immutable once saved.
type ReportStore interface {
	Save(ctx context.Context, source string, report *anomaly.AnomalyReport) error
	Get(ctx context.Context, id core.RunID) (*anomaly.AnomalyReport, error)
	List(ctx context.Context, filters ReportFilters) ([]ReportSummary, error)
}

// ReportFilters for listing stored reports, newest first
type ReportFilters struct {
	RiskLevel *anomaly.RiskLevel
	Limit     int
	Offset    int
}

// ReportSummary is the list view of a stored report
type ReportSummary struct {
	RunID        core.RunID        `json:"run_id" db:"run_id"`
	Source       string            `json:"source" db:"source"`
	GeneratedAt  time.Time         `json:"generated_at" db:"generated_at"`
	TotalUnits   int               `json:"total_units" db:"total_units"`
	FlaggedUnits int               `json:"flagged_units" db:"flagged_units"`
	RiskLevel    anomaly.RiskLevel `json:"risk_level" db:"risk_level"`
}
