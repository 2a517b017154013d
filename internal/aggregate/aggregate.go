// Package aggregate merges detector results into the flat flag list, the
// per-unit flag groups and the run-level risk assessment.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"voteaudit/domain/anomaly"
	"voteaudit/internal/profiling"
)

// CollectFlags turns every outlier and extreme item into a flag. Order is
// turnout, invalid, blank, wasted, dominance; within a category the result's
// ranking is kept.
func CollectFlags(r *anomaly.AnomalyReport) []anomaly.Flag {
	flags := make([]anomaly.Flag, 0)

	for _, it := range r.Turnout.Outliers {
		flags = append(flags, anomaly.NewFlag(it.UnitRef,
			anomaly.TurnoutPayload{TurnoutPct: it.TurnoutPct, ZScore: it.ZScore, Registered: it.Registered, Came: it.Came},
			it.Flag, it.TurnoutPct,
			fmt.Sprintf("turnout %g%% (z=%g)", it.TurnoutPct, it.ZScore),
			it.Severity))
	}
	for _, it := range r.InvalidBallots.Outliers {
		flags = append(flags, anomaly.NewFlag(it.UnitRef,
			anomaly.InvalidPayload{InvalidRate: it.Rate, InvalidVotes: it.Votes, ZScore: it.ZScore},
			it.Flag, it.Rate,
			fmt.Sprintf("invalid ballots %g%% (%s ballots)", it.Rate, humanize.Comma(it.Votes)),
			it.Severity))
	}
	for _, it := range r.BlankVotes.Outliers {
		flags = append(flags, anomaly.NewFlag(it.UnitRef,
			anomaly.BlankPayload{BlankRate: it.Rate, BlankVotes: it.Votes, ZScore: it.ZScore},
			it.Flag, it.Rate,
			fmt.Sprintf("blank votes %g%% (%s ballots)", it.Rate, humanize.Comma(it.Votes)),
			it.Severity))
	}
	for _, it := range r.WastedVotes.Outliers {
		flags = append(flags, anomaly.NewFlag(it.UnitRef,
			anomaly.WastedPayload{WastedRate: it.Rate, WastedVotes: it.Votes, InvalidVotes: it.InvalidVotes, BlankVotes: it.BlankVotes},
			it.Flag, it.Rate,
			fmt.Sprintf("wasted votes %g%% (%s ballots)", it.Rate, humanize.Comma(it.Votes)),
			it.Severity))
	}
	for _, it := range r.WinnerDominance.Extreme {
		flags = append(flags, anomaly.NewFlag(it.UnitRef,
			anomaly.DominancePayload{Winner: it.Winner, WinnerPct: it.WinnerPct, Margin: it.Margin, RunnerUp: it.RunnerUp},
			it.Flag, it.WinnerPct,
			fmt.Sprintf("%s won %g%% (margin %g%%)", it.Winner, it.WinnerPct, it.Margin),
			it.Severity))
	}
	return flags
}

// GroupByUnit keys flags by unit id. Flags from different categories for the
// same unit are all kept.
func GroupByUnit(flags []anomaly.Flag) map[string][]anomaly.Flag {
	groups := make(map[string][]anomaly.Flag)
	for _, f := range flags {
		groups[f.UnitID] = append(groups[f.UnitID], f)
	}
	return groups
}

// FlaggedUnits returns the distinct unit ids carrying at least one flag, sorted.
func FlaggedUnits(flags []anomaly.Flag) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, f := range flags {
		if _, ok := seen[f.UnitID]; ok {
			continue
		}
		seen[f.UnitID] = struct{}{}
		ids = append(ids, f.UnitID)
	}
	sort.Strings(ids)
	return ids
}

// AssessRisk counts the global signals that fired and maps them to a level.
func AssessRisk(r *anomaly.AnomalyReport) anomaly.RiskAssessment {
	signals := []string{}
	if r.Benford.Flagged() {
		signals = append(signals, anomaly.SignalBenford)
	}
	if r.VotePatterns.RoundNumbers.Suspicious {
		signals = append(signals, anomaly.SignalRoundVotes)
	}
	if r.VotePatterns.Variance.Suspicious {
		signals = append(signals, anomaly.SignalLowVariety)
	}

	level := anomaly.RiskLevelFor(len(signals))
	desc := describe(level)
	if r.Benford.Valid && r.Benford.Summary.Verdict == anomaly.VerdictReview {
		desc += fmt.Sprintf(". Benford p = %g is review_recommended and not counted; only non_conforming is a signal",
			r.Benford.Summary.PValue)
	}
	return anomaly.RiskAssessment{
		Level:       level,
		SignalCount: len(signals),
		Signals:     signals,
		Description: desc,
	}
}

func describe(level anomaly.RiskLevel) string {
	switch level {
	case anomaly.RiskLow:
		return "No suspicious global signals"
	case anomaly.RiskMedium:
		return "One suspicious signal, further review advised"
	case anomaly.RiskHigh:
		return "Several suspicious signals, review urgently"
	default:
		return "All global signals fired, investigate immediately"
	}
}

// Finalize fills the flag list, unit groups, risk and metadata counters.
// It must run after every detector has written its result.
func Finalize(r *anomaly.AnomalyReport, totalUnits int) {
	r.AllFlags = CollectFlags(r)
	r.FlagsByUnit = GroupByUnit(r.AllFlags)
	r.Risk = AssessRisk(r)

	flagged := len(FlaggedUnits(r.AllFlags))
	r.Metadata.TotalUnits = totalUnits
	r.Metadata.FlaggedUnits = flagged
	r.Metadata.AnalysisCategories = anomaly.AnalysisCategories
	if totalUnits > 0 {
		r.Metadata.FlaggedPct = profiling.Round(float64(flagged)/float64(totalUnits)*100, 1)
	}
}
