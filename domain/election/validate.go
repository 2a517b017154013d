package election

import (
	"fmt"
	"math"
	"sort"

	"voteaudit/domain/core"
)

// Validate checks the shape of the input collection. Arithmetic mismatches are
// findings and pass; only contract violations are returned, naming the unit.
func Validate(units []UnitRecord) error {
	seen := make(map[string]struct{}, len(units))
	for i, u := range units {
		if u.UnitID == "" {
			return core.NewUnitError(fmt.Sprintf("#%d", i), "unit_id is required")
		}
		if _, dup := seen[u.UnitID]; dup {
			return fmt.Errorf("%w: %s", core.ErrDuplicateKey, u.UnitID)
		}
		seen[u.UnitID] = struct{}{}

		if err := validateUnit(u); err != nil {
			return err
		}
	}
	return nil
}

func validateUnit(u UnitRecord) error {
	counts := []struct {
		field string
		value int64
	}{
		{"registered_voters", u.RegisteredVoters},
		{"turnout_count", u.TurnoutCount},
		{"valid_votes", u.ValidVotes},
		{"invalid_votes", u.InvalidVotes},
		{"blank_votes", u.BlankVotes},
		{"winner_votes", u.WinnerVotes},
		{"total_stations", int64(u.TotalStations)},
		{"counted_stations", int64(u.CountedStations)},
	}
	for _, c := range counts {
		if c.value < 0 {
			return core.NewUnitError(u.UnitID, fmt.Sprintf("%s is negative (%d)", c.field, c.value))
		}
	}

	for _, f := range []struct {
		field string
		value float64
	}{
		{"turnout_pct", u.TurnoutPct},
		{"percent_counted", u.PercentCounted},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return core.NewUnitError(u.UnitID, fmt.Sprintf("%s is not a finite number", f.field))
		}
	}

	for _, c := range u.Candidates {
		if c.VoteCount < 0 {
			return core.NewUnitError(u.UnitID, fmt.Sprintf("candidate %q has negative vote_count", c.Name))
		}
	}
	return nil
}

// SortCandidates orders candidates by rank in place; unranked (0) entries go last.
func SortCandidates(cands []CandidateResult) {
	sort.SliceStable(cands, func(i, j int) bool {
		ri, rj := cands[i].Rank, cands[j].Rank
		if ri == 0 {
			ri = math.MaxInt32
		}
		if rj == 0 {
			rj = math.MaxInt32
		}
		return ri < rj
	})
}

// RankOrdered returns a copy of units whose candidate lists are sorted by
// rank. The input records and their candidate slices are not modified.
func RankOrdered(units []UnitRecord) []UnitRecord {
	out := make([]UnitRecord, len(units))
	for i, u := range units {
		if len(u.Candidates) > 0 {
			u.Candidates = append([]CandidateResult(nil), u.Candidates...)
			SortCandidates(u.Candidates)
		}
		out[i] = u
	}
	return out
}
