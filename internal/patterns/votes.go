// Package patterns implements the vote-stuffing heuristics and the
// province-level winner and turnout checks.
package patterns

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// WinnerVotes returns the winner tallies in input order, skipping units without one.
func WinnerVotes(units []election.UnitRecord) []int64 {
	votes := make([]int64, 0, len(units))
	for _, u := range units {
		if u.WinnerVotes > 0 {
			votes = append(votes, u.WinnerVotes)
		}
	}
	return votes
}

// AnalyzeVotes runs the three heuristics over the winner tallies.
func AnalyzeVotes(units []election.UnitRecord, th anomaly.Thresholds) anomaly.VotePatternResult {
	votes := WinnerVotes(units)
	return anomaly.VotePatternResult{
		SampleSize:   len(votes),
		RoundNumbers: RoundNumbers(votes, th.RoundNumberPct),
		Variance:     Variance(votes, th.LowCVPct),
		Linear:       Linear(votes, th.LinearR, th.LinearMinSample),
	}
}

// IsRound reports whether v is a multiple of 50 (and so also of 100).
func IsRound(v int64) bool {
	return v%100 == 0 || v%50 == 0
}

// RoundNumbers measures how often counts land on multiples of 50 or 100.
func RoundNumbers(votes []int64, suspiciousPct float64) anomaly.RoundNumberResult {
	if len(votes) == 0 {
		return anomaly.RoundNumberResult{Reason: "no vote counts"}
	}

	round := 0
	for _, v := range votes {
		if IsRound(v) {
			round++
		}
	}
	pct := float64(round) / float64(len(votes)) * 100
	suspicious := pct > suspiciousPct

	return anomaly.RoundNumberResult{
		Valid:          true,
		RoundCount:     round,
		TotalCount:     len(votes),
		Percentage:     profiling.Round2(pct),
		Suspicious:     suspicious,
		Interpretation: fmt.Sprintf("%s: %.1f%% are round numbers", verdictWord(suspicious), pct),
	}
}

// Variance flags abnormally uniform counts by their coefficient of variation,
// using the population spread.
func Variance(votes []int64, lowCV float64) anomaly.VarianceResult {
	if len(votes) == 0 {
		return anomaly.VarianceResult{Reason: "no vote counts"}
	}

	data := toFloats(votes)
	mean, _ := stats.Mean(data)
	if mean == 0 {
		return anomaly.VarianceResult{Reason: "mean is zero"}
	}
	variance, _ := stats.PopulationVariance(data)
	std, _ := stats.StandardDeviationPopulation(data)
	cv := std / mean * 100
	suspicious := cv < lowCV

	return anomaly.VarianceResult{
		Valid:          true,
		Mean:           profiling.Round2(mean),
		Variance:       profiling.Round2(variance),
		StdDev:         profiling.Round2(std),
		CV:             profiling.Round2(cv),
		Suspicious:     suspicious,
		Interpretation: fmt.Sprintf("%s: CV = %.1f%%", verdictWord(suspicious), cv),
	}
}

// Linear correlates each count with its position in the sequence.
func Linear(votes []int64, maxAbsR float64, minSample int) anomaly.LinearResult {
	if len(votes) < minSample {
		return anomaly.LinearResult{
			Reason: fmt.Sprintf("insufficient data: need at least %d values, got %d", minSample, len(votes)),
		}
	}

	y := toFloats(votes)
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return anomaly.LinearResult{Reason: "constant series has no correlation"}
	}
	linear := math.Abs(r) > maxAbsR

	return anomaly.LinearResult{
		Valid:          true,
		Correlation:    profiling.Round(r, 4),
		HighlyLinear:   linear,
		Suspicious:     linear,
		Interpretation: fmt.Sprintf("%s: r = %.3f", verdictWord(linear), r),
	}
}

func verdictWord(suspicious bool) string {
	if suspicious {
		return "suspicious"
	}
	return "normal"
}

func toFloats(v []int64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
