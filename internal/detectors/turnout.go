package detectors

import (
	"context"
	"fmt"
	"math"
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// Turnout flags units whose turnout percentage falls outside either fence.
type Turnout struct {
	thresholds anomaly.Thresholds
}

// NewTurnout creates the turnout detector.
func NewTurnout(th anomaly.Thresholds) *Turnout {
	return &Turnout{thresholds: th}
}

func (d *Turnout) Name() string { return "turnout" }

func (d *Turnout) Description() string {
	return "Two-sided IQR fence on turnout percentage"
}

func (d *Turnout) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Turnout = AnalyzeTurnout(units, d.thresholds)
	return nil
}

// AnalyzeTurnout scores every unit with a positive turnout and registration.
func AnalyzeTurnout(units []election.UnitRecord, th anomaly.Thresholds) anomaly.TurnoutResult {
	items := make([]anomaly.TurnoutItem, 0, len(units))
	pcts := make([]float64, 0, len(units))
	for _, u := range units {
		if u.TurnoutCount <= 0 || u.RegisteredVoters <= 0 {
			continue
		}
		pct := profiling.Round2(u.EffectiveTurnoutPct())
		items = append(items, anomaly.TurnoutItem{
			UnitRef:    anomaly.RefFor(u),
			TurnoutPct: pct,
			Registered: u.RegisteredVoters,
			Came:       u.TurnoutCount,
			Flag:       LabelNormal,
		})
		pcts = append(pcts, pct)
	}

	result := anomaly.TurnoutResult{
		Distribution: profiling.Histogram(pcts, profiling.TurnoutBins),
		Outliers:     []anomaly.TurnoutItem{},
		All:          items,
	}

	fence, err := profiling.ComputeFenceWith(pcts, th.FenceMultiplier)
	if err != nil {
		result.Reason = insufficientReason(len(pcts), 2)
		result.Summary.Total = len(pcts)
		sortTurnoutByPct(result.All)
		return result
	}

	for i := range items {
		it := &items[i]
		it.ZScore = profiling.Round2(fence.ZScore(it.TurnoutPct))
		switch {
		case fence.Below(it.TurnoutPct):
			it.IsOutlier = true
			it.Flag = LabelTurnoutLow
		case fence.Above(it.TurnoutPct):
			it.IsOutlier = true
			it.Flag = LabelTurnoutHigh
		}
		if it.IsOutlier {
			it.Severity = anomaly.SeverityFor(math.Abs(it.ZScore) > th.TurnoutHighZ)
			result.Outliers = append(result.Outliers, *it)
		}
	}

	sort.SliceStable(result.Outliers, func(i, j int) bool {
		return result.Outliers[i].ZScore < result.Outliers[j].ZScore
	})
	sortTurnoutByPct(result.All)

	result.Valid = true
	result.Summary = profiling.Summary(fence, len(result.Outliers))
	return result
}

func sortTurnoutByPct(items []anomaly.TurnoutItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TurnoutPct < items[j].TurnoutPct
	})
}

func insufficientReason(got, need int) string {
	return fmt.Sprintf("insufficient data: need at least %d values, got %d", need, got)
}
