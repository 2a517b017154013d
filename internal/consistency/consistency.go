// Package consistency cross-checks the vote arithmetic reported for each unit.
package consistency

import (
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// Check reports turnout-sum and candidate-sum mismatches. Any non-zero
// difference is a finding. candidateLimit caps the candidate list; the
// summary always counts the full set.
func Check(units []election.UnitRecord, candidateLimit int) anomaly.ConsistencyResult {
	var result anomaly.ConsistencyResult
	result.TurnoutErrors = TurnoutErrors(units)

	candidate := CandidateSumErrors(units)
	result.Summary.TurnoutMathErrors = len(result.TurnoutErrors)
	result.Summary.CandidateSumErrors = len(candidate)
	result.Summary.TotalUnits = len(units)

	if candidateLimit >= 0 && len(candidate) > candidateLimit {
		candidate = candidate[:candidateLimit]
	}
	result.CandidateSumErrors = candidate
	return result
}

// TurnoutErrors lists units where valid+invalid+blank differs from turnout.
func TurnoutErrors(units []election.UnitRecord) []anomaly.TurnoutMathError {
	errs := []anomaly.TurnoutMathError{}
	for _, u := range units {
		if u.TurnoutCount <= 0 {
			continue
		}
		sum := u.ComponentSum()
		if diff := abs(sum - u.TurnoutCount); diff > 0 {
			errs = append(errs, anomaly.TurnoutMathError{
				UnitRef:    anomaly.RefFor(u),
				TurnOut:    u.TurnoutCount,
				SumVotes:   sum,
				Difference: diff,
			})
		}
	}
	return errs
}

// CandidateSumErrors lists units whose candidate tallies do not add up to the
// valid votes, largest absolute difference first.
func CandidateSumErrors(units []election.UnitRecord) []anomaly.CandidateSumError {
	errs := []anomaly.CandidateSumError{}
	for _, u := range units {
		if len(u.Candidates) == 0 || u.ValidVotes <= 0 {
			continue
		}
		sum := u.CandidateSum()
		if diff := abs(sum - u.ValidVotes); diff > 0 {
			errs = append(errs, anomaly.CandidateSumError{
				UnitRef:      anomaly.RefFor(u),
				ValidVotes:   u.ValidVotes,
				CandidateSum: sum,
				Difference:   diff,
				PctDiff:      profiling.Round2(float64(diff) / float64(u.ValidVotes) * 100),
			})
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Difference > errs[j].Difference
	})
	return errs
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
