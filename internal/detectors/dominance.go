package detectors

import (
	"context"
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// Dominance marks winners whose share of valid votes exceeds a policy
// threshold. The cut is absolute, not distributional.
type Dominance struct {
	thresholds anomaly.Thresholds
}

// NewDominance creates the winner-dominance detector.
func NewDominance(th anomaly.Thresholds) *Dominance {
	return &Dominance{thresholds: th}
}

func (d *Dominance) Name() string { return "winner_dominance" }

func (d *Dominance) Description() string {
	return "Winner share of valid votes against an absolute threshold"
}

func (d *Dominance) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.WinnerDominance = AnalyzeDominance(units, d.thresholds)
	return nil
}

// AnalyzeDominance scores every unit with valid votes and a winner tally.
func AnalyzeDominance(units []election.UnitRecord, th anomaly.Thresholds) anomaly.DominanceResult {
	items := make([]anomaly.DominanceItem, 0, len(units))
	pcts := make([]float64, 0, len(units))
	for _, u := range units {
		if u.ValidVotes <= 0 || u.WinnerVotes <= 0 {
			continue
		}
		valid := float64(u.ValidVotes)
		pct := profiling.Round2(float64(u.WinnerVotes) / valid * 100)

		it := anomaly.DominanceItem{
			UnitRef:     anomaly.RefFor(u),
			Winner:      u.WinnerName,
			WinnerColor: u.WinnerColor,
			WinnerPct:   pct,
			WinnerVotes: u.WinnerVotes,
			ValidVotes:  u.ValidVotes,
			Flag:        LabelNormal,
		}
		if ru, ok := u.RunnerUp(); ok {
			it.Margin = profiling.Round2(float64(u.WinnerVotes-ru.VoteCount) / valid * 100)
			it.RunnerUp = ru.Party
			it.RunnerUpVotes = ru.VoteCount
		}
		items = append(items, it)
		pcts = append(pcts, pct)
	}

	result := anomaly.DominanceResult{
		Distribution: profiling.Histogram(pcts, profiling.DominanceBins),
		Extreme:      []anomaly.DominanceItem{},
		All:          items,
	}
	result.Summary.Threshold = th.DominancePct
	result.Summary.Total = len(items)

	var mean, stdev float64
	if len(pcts) >= 2 {
		mean = profiling.Mean(pcts)
		stdev = profiling.SampleStdev(pcts)
		result.Valid = true
	} else {
		result.Reason = insufficientReason(len(pcts), 2)
	}

	label := DominanceLabel(th.DominancePct)
	for i := range items {
		it := &items[i]
		it.ZScore = profiling.Round2(profiling.ZScore(it.WinnerPct, mean, stdev))
		if it.WinnerPct > th.DominancePct {
			it.IsExtreme = true
			it.Flag = label
			it.Severity = anomaly.SeverityFor(it.WinnerPct > th.DominanceHighPct)
			result.Extreme = append(result.Extreme, *it)
		}
	}

	byShareDesc := func(list []anomaly.DominanceItem) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].WinnerPct > list[j].WinnerPct
		})
	}
	byShareDesc(result.Extreme)
	byShareDesc(result.All)

	result.Summary.Mean = profiling.Round2(mean)
	result.Summary.Stdev = profiling.Round2(stdev)
	result.Summary.ExtremeCount = len(result.Extreme)
	return result
}
