package detectors

import (
	"context"
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// CountingProgress reports incomplete and paused counting.
type CountingProgress struct {
	thresholds anomaly.Thresholds
}

// NewCountingProgress creates the counting-progress detector.
func NewCountingProgress(th anomaly.Thresholds) *CountingProgress {
	return &CountingProgress{thresholds: th}
}

func (d *CountingProgress) Name() string { return "counting_progress" }

func (d *CountingProgress) Description() string {
	return "Station counting completeness and paused reporting"
}

func (d *CountingProgress) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.CountingProgress = AnalyzeCounting(units, d.thresholds)
	return nil
}

// AnalyzeCounting summarises station progress across all units.
func AnalyzeCounting(units []election.UnitRecord, th anomaly.Thresholds) anomaly.CountingResult {
	var result anomaly.CountingResult
	result.Paused = []anomaly.CountingItem{}
	incomplete := make([]anomaly.CountingItem, 0)

	for _, u := range units {
		it := anomaly.CountingItem{
			UnitRef:         anomaly.RefFor(u),
			TotalStations:   u.TotalStations,
			CountedStations: u.CountedStations,
			Remaining:       u.TotalStations - u.CountedStations,
			PercentCount:    profiling.Round2(u.PercentCounted),
			Paused:          u.Paused,
		}
		if it.Paused {
			result.Paused = append(result.Paused, it)
		}
		if it.PercentCount < 100 {
			incomplete = append(incomplete, it)
		} else {
			result.Summary.Complete++
		}
	}

	sort.SliceStable(incomplete, func(i, j int) bool {
		return incomplete[i].PercentCount < incomplete[j].PercentCount
	})

	result.Summary.Total = len(units)
	result.Summary.Incomplete = len(incomplete)
	result.Summary.Paused = len(result.Paused)

	limit := th.IncompleteLimit
	if limit > len(incomplete) {
		limit = len(incomplete)
	}
	result.MostIncomplete = incomplete[:limit]
	return result
}
