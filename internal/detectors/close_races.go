package detectors

import (
	"context"
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// CloseRaces lists units decided by a narrow margin. Report only, never flagged.
type CloseRaces struct {
	thresholds anomaly.Thresholds
}

// NewCloseRaces creates the close-margin detector.
func NewCloseRaces(th anomaly.Thresholds) *CloseRaces {
	return &CloseRaces{thresholds: th}
}

func (d *CloseRaces) Name() string { return "close_races" }

func (d *CloseRaces) Description() string {
	return "Margin between the two leading candidates as a share of valid votes"
}

func (d *CloseRaces) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.CloseRaces = AnalyzeCloseRaces(units, d.thresholds)
	return nil
}

// AnalyzeCloseRaces computes the leader margin of every contested unit.
func AnalyzeCloseRaces(units []election.UnitRecord, th anomaly.Thresholds) anomaly.CloseRaceResult {
	items := make([]anomaly.CloseRaceItem, 0, len(units))
	for _, u := range units {
		if len(u.Candidates) < 2 || u.ValidVotes <= 0 {
			continue
		}
		first, second := u.Candidates[0], u.Candidates[1]
		diff := first.VoteCount - second.VoteCount
		margin := profiling.Round2(float64(diff) / float64(u.ValidVotes) * 100)
		items = append(items, anomaly.CloseRaceItem{
			UnitRef:       anomaly.RefFor(u),
			MarginPct:     margin,
			MarginVotes:   diff,
			Winner:        first.Party,
			WinnerVotes:   first.VoteCount,
			RunnerUp:      second.Party,
			RunnerUpVotes: second.VoteCount,
			WinnerName:    first.Name,
			RunnerUpName:  second.Name,
			CountedPct:    u.PercentCounted,
			IsClose:       margin < th.CloseMarginPct,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].MarginPct < items[j].MarginPct
	})

	var result anomaly.CloseRaceResult
	result.CloseRaces = []anomaly.CloseRaceItem{}
	for _, it := range items {
		if it.IsClose {
			result.CloseRaces = append(result.CloseRaces, it)
		}
	}
	result.Summary.TotalClose = len(result.CloseRaces)
	result.Summary.Total = len(items)
	result.Summary.Threshold = th.CloseMarginPct
	return result
}
