package anomaly

import "fmt"

// Thresholds holds every tunable cut used by the detectors.
type Thresholds struct {
	FenceMultiplier float64 `json:"fence_multiplier" mapstructure:"fence_multiplier"`

	TurnoutHighZ   float64 `json:"turnout_high_z" mapstructure:"turnout_high_z"`
	InvalidHighPct float64 `json:"invalid_high_pct" mapstructure:"invalid_high_pct"`
	BlankHighPct   float64 `json:"blank_high_pct" mapstructure:"blank_high_pct"`
	WastedHighPct  float64 `json:"wasted_high_pct" mapstructure:"wasted_high_pct"`

	// DominancePct marks a winner share as extreme.
	DominancePct     float64 `json:"dominance_pct" mapstructure:"dominance_pct"`
	DominanceHighPct float64 `json:"dominance_high_pct" mapstructure:"dominance_high_pct"`
	CloseMarginPct   float64 `json:"close_margin_pct" mapstructure:"close_margin_pct"`

	BenfordMinSample   int     `json:"benford_min_sample" mapstructure:"benford_min_sample"`
	BenfordAlpha       float64 `json:"benford_alpha" mapstructure:"benford_alpha"`
	BenfordStrictAlpha float64 `json:"benford_strict_alpha" mapstructure:"benford_strict_alpha"`

	RoundNumberPct  float64 `json:"round_number_pct" mapstructure:"round_number_pct"`
	LowCVPct        float64 `json:"low_cv_pct" mapstructure:"low_cv_pct"`
	LinearR         float64 `json:"linear_r" mapstructure:"linear_r"`
	LinearMinSample int     `json:"linear_min_sample" mapstructure:"linear_min_sample"`

	MonopolyMinUnits     int     `json:"monopoly_min_units" mapstructure:"monopoly_min_units"`
	ProvinceTurnoutStdev float64 `json:"province_turnout_stdev" mapstructure:"province_turnout_stdev"`

	CandidateErrorLimit int `json:"candidate_error_limit" mapstructure:"candidate_error_limit"`
	IncompleteLimit     int `json:"incomplete_limit" mapstructure:"incomplete_limit"`
}

// DefaultThresholds returns the reference cut values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FenceMultiplier:      1.5,
		TurnoutHighZ:         3,
		InvalidHighPct:       8,
		BlankHighPct:         10,
		WastedHighPct:        20,
		DominancePct:         60,
		DominanceHighPct:     70,
		CloseMarginPct:       3,
		BenfordMinSample:     30,
		BenfordAlpha:         0.05,
		BenfordStrictAlpha:   0.01,
		RoundNumberPct:       20,
		LowCVPct:             10,
		LinearR:              0.95,
		LinearMinSample:      10,
		MonopolyMinUnits:     3,
		ProvinceTurnoutStdev: 10,
		CandidateErrorLimit:  30,
		IncompleteLimit:      20,
	}
}

// Validate rejects thresholds that would make a detector meaningless.
func (t Thresholds) Validate() error {
	switch {
	case t.FenceMultiplier <= 0:
		return fmt.Errorf("fence_multiplier must be positive, got %g", t.FenceMultiplier)
	case t.BenfordMinSample < 1:
		return fmt.Errorf("benford_min_sample must be at least 1, got %d", t.BenfordMinSample)
	case t.BenfordStrictAlpha <= 0 || t.BenfordAlpha >= 1 || t.BenfordStrictAlpha > t.BenfordAlpha:
		return fmt.Errorf("benford alphas must satisfy 0 < strict (%g) <= alpha (%g) < 1", t.BenfordStrictAlpha, t.BenfordAlpha)
	case t.LinearR <= 0 || t.LinearR > 1:
		return fmt.Errorf("linear_r must be within (0,1], got %g", t.LinearR)
	case t.LinearMinSample < 2:
		return fmt.Errorf("linear_min_sample must be at least 2, got %d", t.LinearMinSample)
	case t.DominancePct <= 0 || t.DominancePct > 100:
		return fmt.Errorf("dominance_pct must be within (0,100], got %g", t.DominancePct)
	case t.MonopolyMinUnits < 1:
		return fmt.Errorf("monopoly_min_units must be at least 1, got %d", t.MonopolyMinUnits)
	case t.CandidateErrorLimit < 0 || t.IncompleteLimit < 0:
		return fmt.Errorf("report limits must not be negative")
	}
	return nil
}
