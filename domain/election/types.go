// Package election holds the per-constituency result records the audit engine consumes.
package election

// CandidateResult is one candidate's tally within a unit.
type CandidateResult struct {
	Name      string `json:"name"`
	Party     string `json:"party"`
	VoteCount int64  `json:"vote_count"`
	Rank      int    `json:"rank"`
}

// UnitRecord is one polling constituency's result snapshot.
//
// The arithmetic relations valid+invalid+blank == turnout and
// sum(candidates) == valid are expected but not enforced here; violations
// are reported by the consistency checker.
type UnitRecord struct {
	UnitID       string `json:"unit_id"`
	Constituency string `json:"constituency"`
	Province     string `json:"province"`
	ProvID       string `json:"prov_id"`

	RegisteredVoters int64   `json:"registered_voters"`
	TurnoutCount     int64   `json:"turnout_count"`
	TurnoutPct       float64 `json:"turnout_pct"`

	ValidVotes   int64 `json:"valid_votes"`
	InvalidVotes int64 `json:"invalid_votes"`
	BlankVotes   int64 `json:"blank_votes"`

	TotalStations   int     `json:"total_stations"`
	CountedStations int     `json:"counted_stations"`
	PercentCounted  float64 `json:"percent_counted"`
	Paused          bool    `json:"paused"`

	WinnerName  string `json:"winner_name"`
	WinnerColor string `json:"winner_color"`
	WinnerVotes int64  `json:"winner_votes"`

	// Candidates are ordered by rank, winner first.
	Candidates []CandidateResult `json:"candidates"`
}

// EffectiveTurnoutPct returns the supplied turnout percentage, deriving it from
// turnout/registered when the source left it empty.
func (u UnitRecord) EffectiveTurnoutPct() float64 {
	if u.TurnoutPct > 0 {
		return u.TurnoutPct
	}
	if u.RegisteredVoters > 0 && u.TurnoutCount > 0 {
		return float64(u.TurnoutCount) / float64(u.RegisteredVoters) * 100
	}
	return 0
}

// ComponentSum is valid + invalid + blank.
func (u UnitRecord) ComponentSum() int64 {
	return u.ValidVotes + u.InvalidVotes + u.BlankVotes
}

// CandidateSum is the sum of all candidate vote counts.
func (u UnitRecord) CandidateSum() int64 {
	var sum int64
	for _, c := range u.Candidates {
		sum += c.VoteCount
	}
	return sum
}

// RunnerUp returns the second-ranked candidate, if any.
func (u UnitRecord) RunnerUp() (CandidateResult, bool) {
	if len(u.Candidates) < 2 {
		return CandidateResult{}, false
	}
	return u.Candidates[1], true
}
