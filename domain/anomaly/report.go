package anomaly

import (
	"time"

	"voteaudit/domain/core"
)

// RiskLevel is the coarse run-level classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps the number of global signals that fired to a level.
func RiskLevelFor(signals int) RiskLevel {
	switch {
	case signals <= 0:
		return RiskLow
	case signals == 1:
		return RiskMedium
	case signals == 2:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Global signal names counted by the risk classifier.
const (
	SignalBenford    = "benford_non_conforming"
	SignalRoundVotes = "round_numbers"
	SignalLowVariety = "low_variance"
)

// RiskAssessment is the run-level risk gate.
type RiskAssessment struct {
	Level       RiskLevel `json:"level"`
	SignalCount int       `json:"signal_count"`
	Signals     []string  `json:"signals"`
	Description string    `json:"description"`
}

// Metadata describes the run.
type Metadata struct {
	RunID              core.RunID `json:"run_id"`
	GeneratedAt        time.Time  `json:"generated_at"`
	TotalUnits         int        `json:"total_units"`
	FlaggedUnits       int        `json:"flagged_units"`
	FlaggedPct         float64    `json:"flagged_pct"`
	AnalysisCategories int        `json:"analysis_categories"`
}

// AnomalyReport is the complete output of one analysis run.
type AnomalyReport struct {
	Metadata         Metadata          `json:"metadata"`
	Turnout          TurnoutResult     `json:"turnout"`
	InvalidBallots   RateResult        `json:"invalid_ballots"`
	BlankVotes       RateResult        `json:"blank_votes"`
	WastedVotes      RateResult        `json:"wasted_votes"`
	WinnerDominance  DominanceResult   `json:"winner_dominance"`
	CloseRaces       CloseRaceResult   `json:"close_races"`
	CountingProgress CountingResult    `json:"counting_progress"`
	MathConsistency  ConsistencyResult `json:"math_consistency"`
	Benford          BenfordResult     `json:"benford"`
	ProvincePatterns ProvinceResult    `json:"province_patterns"`
	VotePatterns     VotePatternResult `json:"vote_patterns"`
	Risk             RiskAssessment    `json:"risk"`
	AllFlags         []Flag            `json:"all_flags"`
	FlagsByUnit      map[string][]Flag `json:"flags_by_unit"`
}

// AnalysisCategories is the number of per-unit analyses reported.
const AnalysisCategories = 8
