package app

import (
	"context"
	"time"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/core"
	"voteaudit/domain/election"
	"voteaudit/internal"
	"voteaudit/internal/detectors"
	"voteaudit/internal/errors"
	"voteaudit/ports"
)

// AuditService runs the detector engine over a unit collection and assembles
// the anomaly report, persisting it when a store is configured.
type AuditService struct {
	engine *detectors.Engine
	store  ports.ReportStore
	events ports.EventPublisher
	logger *internal.Logger
	now    func() time.Time
}

// NewAuditService creates an audit service. store may be nil.
func NewAuditService(engine *detectors.Engine, store ports.ReportStore, logger *internal.Logger) *AuditService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AuditService{
		engine: engine,
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher attaches a receiver for run lifecycle events.
func (s *AuditService) SetPublisher(p ports.EventPublisher) {
	s.events = p
}

func (s *AuditService) publish(runID core.RunID, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ports.RunEvent{RunID: runID, EventType: eventType, Data: data, Timestamp: s.now()})
}

// Analyze validates the input contract and runs every detector. Arithmetic
// inconsistencies are reported in the result; only malformed records fail.
func (s *AuditService) Analyze(ctx context.Context, units []election.UnitRecord) (*anomaly.AnomalyReport, error) {
	if len(units) == 0 {
		return nil, errors.InvalidInput("no unit records supplied")
	}
	if err := election.Validate(units); err != nil {
		return nil, errors.InvalidInputCause(err)
	}
	units = election.RankOrdered(units)

	runID := core.NewRunID()
	start := time.Now()
	s.logger.Debug("[AuditService] run %s: analysing %d units", runID, len(units))
	s.publish(runID, ports.EventRunStarted, map[string]interface{}{"units": len(units)})

	report, err := s.engine.Run(ctx, units)
	if err != nil {
		s.publish(runID, ports.EventRunFailed, map[string]interface{}{"error": err.Error()})
		return nil, errors.Wrapf(err, "analysis run %s failed", runID)
	}
	report.Metadata.RunID = runID
	report.Metadata.GeneratedAt = s.now()

	s.logger.Info("[AuditService] run %s: %d units, %d flags on %d units, risk %s (%s)",
		runID, len(units), len(report.AllFlags), report.Metadata.FlaggedUnits,
		report.Risk.Level, time.Since(start).Round(time.Millisecond))
	s.publish(runID, ports.EventRunCompleted, map[string]interface{}{
		"risk_level":    report.Risk.Level,
		"flagged_units": report.Metadata.FlaggedUnits,
		"total_flags":   len(report.AllFlags),
	})
	return report, nil
}

// AnalyzeSource loads units from source, analyses them and stores the report
// when a store is configured.
func (s *AuditService) AnalyzeSource(ctx context.Context, source ports.UnitSource) (*anomaly.AnomalyReport, error) {
	units, err := source.LoadUnits(ctx)
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.SourceError(source.Name(), err)
	}
	s.logger.Debug("[AuditService] loaded %d units from %s", len(units), source.Name())

	report, err := s.Analyze(ctx, units)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, source.Name(), report); err != nil {
		return nil, err
	}
	return report, nil
}

// AnalyzeAndStore analyses units supplied in memory and stores the report.
func (s *AuditService) AnalyzeAndStore(ctx context.Context, source string, units []election.UnitRecord) (*anomaly.AnomalyReport, error) {
	report, err := s.Analyze(ctx, units)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, source, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *AuditService) save(ctx context.Context, source string, report *anomaly.AnomalyReport) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, source, report); err != nil {
		s.logger.Error("[AuditService] failed to store report %s: %v", report.Metadata.RunID, err)
		return errors.Wrapf(err, "failed to store report %s", report.Metadata.RunID)
	}
	return nil
}

// GetReport fetches a stored report.
func (s *AuditService) GetReport(ctx context.Context, id core.RunID) (*anomaly.AnomalyReport, error) {
	if s.store == nil {
		return nil, errors.NotFound("report store")
	}
	return s.store.Get(ctx, id)
}

// ListReports lists stored reports.
func (s *AuditService) ListReports(ctx context.Context, filters ports.ReportFilters) ([]ports.ReportSummary, error) {
	if s.store == nil {
		return []ports.ReportSummary{}, nil
	}
	return s.store.List(ctx, filters)
}
