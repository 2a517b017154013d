// Package detectors holds the per-metric outlier detectors and the engine
// that runs every analysis over one immutable unit collection.
package detectors

import (
	"context"

	"golang.org/x/sync/errgroup"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/aggregate"
	"voteaudit/internal/benford"
	"voteaudit/internal/consistency"
	"voteaudit/internal/patterns"
)

// Detector is one independent analysis. Each detector writes only its own
// section of the report, so detectors may run concurrently.
type Detector interface {
	Name() string
	Description() string
	Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error
}

// Engine runs all detectors and then aggregates their findings.
type Engine struct {
	detectors []Detector
	parallel  bool
}

// NewEngine registers every built-in detector.
func NewEngine(th anomaly.Thresholds, parallel bool) *Engine {
	return &Engine{
		detectors: []Detector{
			NewTurnout(th),
			NewInvalidBallots(th),
			NewBlankVotes(th),
			NewWastedVotes(th),
			NewDominance(th),
			NewCloseRaces(th),
			NewCountingProgress(th),
			NewConsistency(th),
			NewBenford(th),
			NewProvincePatterns(th),
			NewVotePatterns(th),
		},
		parallel: parallel,
	}
}

// Run analyses units and returns the assembled report. Metadata identity
// (run id, timestamp) is left to the caller.
func (e *Engine) Run(ctx context.Context, units []election.UnitRecord) (*anomaly.AnomalyReport, error) {
	report := &anomaly.AnomalyReport{}

	if e.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, d := range e.detectors {
			g.Go(func() error {
				return d.Analyze(gctx, units, report)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, d := range e.detectors {
			if err := d.Analyze(ctx, units, report); err != nil {
				return nil, err
			}
		}
	}

	aggregate.Finalize(report, len(units))
	return report, nil
}

// Names lists the registered detectors in execution order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name()
	}
	return names
}

// Consistency wraps the arithmetic checker.
type Consistency struct{ limit int }

func NewConsistency(th anomaly.Thresholds) *Consistency {
	return &Consistency{limit: th.CandidateErrorLimit}
}

func (d *Consistency) Name() string        { return "math_consistency" }
func (d *Consistency) Description() string { return "Turnout and candidate vote sum arithmetic" }

func (d *Consistency) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.MathConsistency = consistency.Check(units, d.limit)
	return nil
}

// Benford wraps the leading-digit conformity tester.
type Benford struct{ tester *benford.Tester }

func NewBenford(th anomaly.Thresholds) *Benford {
	return &Benford{tester: benford.NewTester(th)}
}

func (d *Benford) Name() string        { return "benford" }
func (d *Benford) Description() string { return "Chi-square test of candidate vote leading digits" }

func (d *Benford) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Benford = d.tester.AnalyzeUnits(units)
	return nil
}

// ProvincePatterns wraps the province monopoly and variation check.
type ProvincePatterns struct{ thresholds anomaly.Thresholds }

func NewProvincePatterns(th anomaly.Thresholds) *ProvincePatterns {
	return &ProvincePatterns{thresholds: th}
}

func (d *ProvincePatterns) Name() string        { return "province_patterns" }
func (d *ProvincePatterns) Description() string { return "Single-party provinces and turnout spread" }

func (d *ProvincePatterns) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.ProvincePatterns = patterns.AnalyzeProvinces(units, d.thresholds)
	return nil
}

// VotePatterns wraps the round-number, variance and linear heuristics.
type VotePatterns struct{ thresholds anomaly.Thresholds }

func NewVotePatterns(th anomaly.Thresholds) *VotePatterns {
	return &VotePatterns{thresholds: th}
}

func (d *VotePatterns) Name() string { return "vote_patterns" }
func (d *VotePatterns) Description() string {
	return "Round-number, low-variance and linear-trend heuristics"
}

func (d *VotePatterns) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.VotePatterns = patterns.AnalyzeVotes(units, d.thresholds)
	return nil
}
