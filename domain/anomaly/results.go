package anomaly

// Histogram is a count-per-bin summary in chart-friendly shape.
type Histogram struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// MetricSummary describes the distribution of one rate metric.
type MetricSummary struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Stdev        float64 `json:"stdev"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	LowerFence   float64 `json:"lower_fence"`
	UpperFence   float64 `json:"upper_fence"`
	Total        int     `json:"total"`
	OutlierCount int     `json:"outlier_count"`
}

// TurnoutItem is the per-unit detail of the turnout detector.
type TurnoutItem struct {
	UnitRef
	TurnoutPct float64  `json:"turnout_pct"`
	Registered int64    `json:"registered"`
	Came       int64    `json:"came"`
	ZScore     float64  `json:"z_score"`
	IsOutlier  bool     `json:"is_outlier"`
	Flag       string   `json:"flag"`
	Severity   Severity `json:"severity,omitempty"`
}

// TurnoutResult is the turnout detector output. Outliers are sorted by z-score ascending.
type TurnoutResult struct {
	Valid        bool          `json:"valid"`
	Reason       string        `json:"reason,omitempty"`
	Summary      MetricSummary `json:"summary"`
	Distribution Histogram     `json:"distribution"`
	Outliers     []TurnoutItem `json:"outliers"`
	All          []TurnoutItem `json:"all"`
}

// RateItem is the per-unit detail of a rate-excess detector (invalid, blank, wasted).
type RateItem struct {
	UnitRef
	Rate         float64  `json:"rate"`
	Votes        int64    `json:"votes"`
	TurnoutCount int64    `json:"turn_out"`
	InvalidVotes int64    `json:"invalid_votes,omitempty"`
	BlankVotes   int64    `json:"blank_votes,omitempty"`
	ZScore       float64  `json:"z_score"`
	IsOutlier    bool     `json:"is_outlier"`
	Flag         string   `json:"flag"`
	Severity     Severity `json:"severity,omitempty"`
}

// RateResult is a rate-excess detector output. Outliers are sorted by rate descending.
type RateResult struct {
	Metric       string        `json:"metric"`
	Valid        bool          `json:"valid"`
	Reason       string        `json:"reason,omitempty"`
	Summary      MetricSummary `json:"summary"`
	Distribution Histogram     `json:"distribution"`
	Outliers     []RateItem    `json:"outliers"`
	All          []RateItem    `json:"all"`
}

// DominanceSummary describes the winner share distribution.
type DominanceSummary struct {
	Mean         float64 `json:"mean"`
	Stdev        float64 `json:"stdev"`
	Threshold    float64 `json:"threshold"`
	Total        int     `json:"total"`
	ExtremeCount int     `json:"extreme_count"`
}

// DominanceItem is the per-unit detail of the winner-dominance detector.
type DominanceItem struct {
	UnitRef
	Winner        string   `json:"winner"`
	WinnerColor   string   `json:"winner_color"`
	WinnerPct     float64  `json:"winner_pct"`
	WinnerVotes   int64    `json:"winner_votes"`
	ValidVotes    int64    `json:"valid_votes"`
	Margin        float64  `json:"margin"`
	RunnerUp      string   `json:"runner_up"`
	RunnerUpVotes int64    `json:"runner_up_votes"`
	ZScore        float64  `json:"z_score"`
	IsExtreme     bool     `json:"is_extreme"`
	Flag          string   `json:"flag"`
	Severity      Severity `json:"severity,omitempty"`
}

// DominanceResult is the winner-dominance detector output.
type DominanceResult struct {
	Valid        bool             `json:"valid"`
	Reason       string           `json:"reason,omitempty"`
	Summary      DominanceSummary `json:"summary"`
	Distribution Histogram        `json:"distribution"`
	Extreme      []DominanceItem  `json:"extreme"`
	All          []DominanceItem  `json:"all"`
}

// CloseRaceItem describes the margin between the two leading candidates.
type CloseRaceItem struct {
	UnitRef
	MarginPct     float64 `json:"margin_pct"`
	MarginVotes   int64   `json:"margin_votes"`
	Winner        string  `json:"winner"`
	WinnerVotes   int64   `json:"winner_votes"`
	RunnerUp      string  `json:"runner_up"`
	RunnerUpVotes int64   `json:"runner_up_votes"`
	WinnerName    string  `json:"winner_name"`
	RunnerUpName  string  `json:"runner_up_name"`
	CountedPct    float64 `json:"counted_pct"`
	IsClose       bool    `json:"is_close"`
}

// CloseRaceResult lists races decided by less than the close-margin threshold.
type CloseRaceResult struct {
	Summary struct {
		TotalClose int     `json:"total_close"`
		Total      int     `json:"total"`
		Threshold  float64 `json:"threshold"`
	} `json:"summary"`
	CloseRaces []CloseRaceItem `json:"close_races"`
}

// CountingItem is one unit's counting progress.
type CountingItem struct {
	UnitRef
	TotalStations   int     `json:"total_stations"`
	CountedStations int     `json:"counted_stations"`
	Remaining       int     `json:"remaining"`
	PercentCount    float64 `json:"percent_count"`
	Paused          bool    `json:"pause_report"`
}

// CountingResult summarises counting progress and paused reporting.
type CountingResult struct {
	Summary struct {
		Total      int `json:"total"`
		Complete   int `json:"complete"`
		Incomplete int `json:"incomplete"`
		Paused     int `json:"paused"`
	} `json:"summary"`
	Paused         []CountingItem `json:"paused"`
	MostIncomplete []CountingItem `json:"most_incomplete"`
}

// TurnoutMathError records valid+invalid+blank != turnout.
type TurnoutMathError struct {
	UnitRef
	TurnOut    int64 `json:"turn_out"`
	SumVotes   int64 `json:"sum_votes"`
	Difference int64 `json:"difference"`
}

// CandidateSumError records sum(candidates) != valid votes.
type CandidateSumError struct {
	UnitRef
	ValidVotes   int64   `json:"valid_votes"`
	CandidateSum int64   `json:"candidate_sum"`
	Difference   int64   `json:"difference"`
	PctDiff      float64 `json:"pct_diff"`
}

// ConsistencyResult is the arithmetic consistency check output. The candidate
// list is truncated for reporting; the summary counts the full error set.
type ConsistencyResult struct {
	Summary struct {
		TurnoutMathErrors  int `json:"turnout_math_errors"`
		CandidateSumErrors int `json:"candidate_sum_errors"`
		TotalUnits         int `json:"total_units"`
	} `json:"summary"`
	TurnoutErrors      []TurnoutMathError  `json:"turnout_errors"`
	CandidateSumErrors []CandidateSumError `json:"candidate_sum_errors"`
}

// BenfordVerdict is the three-way outcome of the conformity test.
type BenfordVerdict string

const (
	VerdictConforms          BenfordVerdict = "conforms"
	VerdictReview            BenfordVerdict = "review_recommended"
	VerdictNonConforming     BenfordVerdict = "non_conforming"
	VerdictInsufficientInput BenfordVerdict = "insufficient_sample"
)

// DigitRow is the per-digit audit line of the Benford test.
type DigitRow struct {
	Digit         int     `json:"digit"`
	ObservedCount int     `json:"observed_count"`
	ObservedPct   float64 `json:"observed_pct"`
	ExpectedPct   float64 `json:"expected_pct"`
	Deviation     float64 `json:"deviation"`
}

// BenfordSummary holds the test statistic and verdict.
type BenfordSummary struct {
	TotalValues    int            `json:"total_values"`
	ChiSquare      float64        `json:"chi_square"`
	PValue         float64        `json:"p_value"`
	ChiCritical005 float64        `json:"chi_critical_005"`
	PassesTest     bool           `json:"passes_test"`
	Conforms       bool           `json:"conforms"`
	Verdict        BenfordVerdict `json:"verdict"`
}

// BenfordResult is the conformity tester output.
type BenfordResult struct {
	Valid          bool           `json:"valid"`
	Reason         string         `json:"reason,omitempty"`
	SampleSize     int            `json:"sample_size"`
	Summary        BenfordSummary `json:"summary"`
	Interpretation string         `json:"interpretation"`
	Digits         []DigitRow     `json:"digits"`
}

// Flagged reports whether the test ran and rejected conformity at the strict level.
func (r BenfordResult) Flagged() bool {
	return r.Valid && r.Summary.Verdict == VerdictNonConforming
}

// RoundNumberResult is the round-number frequency heuristic.
type RoundNumberResult struct {
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
	RoundCount     int     `json:"round_numbers_count"`
	TotalCount     int     `json:"total_count"`
	Percentage     float64 `json:"percentage"`
	Suspicious     bool    `json:"suspicious"`
	Interpretation string  `json:"interpretation"`
}

// VarianceResult is the coefficient-of-variation heuristic.
type VarianceResult struct {
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
	Mean           float64 `json:"mean"`
	Variance       float64 `json:"variance"`
	StdDev         float64 `json:"std_dev"`
	CV             float64 `json:"coefficient_of_variation"`
	Suspicious     bool    `json:"suspicious"`
	Interpretation string  `json:"interpretation"`
}

// LinearResult is the sequence-index correlation heuristic.
type LinearResult struct {
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
	Correlation    float64 `json:"correlation"`
	HighlyLinear   bool    `json:"highly_linear"`
	Suspicious     bool    `json:"suspicious"`
	Interpretation string  `json:"interpretation"`
}

// VotePatternResult groups the vote-stuffing heuristics.
type VotePatternResult struct {
	SampleSize   int               `json:"sample_size"`
	RoundNumbers RoundNumberResult `json:"round_numbers"`
	Variance     VarianceResult    `json:"variance_analysis"`
	Linear       LinearResult      `json:"linear_patterns"`
}

// ProvincePattern names the province-level pattern a province matched.
type ProvincePattern string

const (
	PatternNone          ProvincePattern = ""
	PatternMonopoly      ProvincePattern = "monopoly"
	PatternHighVariation ProvincePattern = "high_variation"
)

// ProvinceEntry aggregates the units of one province.
type ProvinceEntry struct {
	Province       string          `json:"province"`
	ProvID         string          `json:"prov_id"`
	TotalCons      int             `json:"total_cons"`
	UniqueWinners  int             `json:"unique_winners"`
	DominantParty  string          `json:"dominant_party"`
	DominantCount  int             `json:"dominant_count"`
	DominantPct    float64         `json:"dominant_pct"`
	AvgTurnout     float64         `json:"avg_turnout"`
	TurnoutStdev   float64         `json:"turnout_stdev"`
	AvgInvalidRate float64         `json:"avg_invalid_rate"`
	Pattern        ProvincePattern `json:"pattern,omitempty"`
	Flag           string          `json:"flag,omitempty"`
}

// ProvinceResult lists provinces matching each pattern.
type ProvinceResult struct {
	Monopoly      []ProvinceEntry `json:"monopoly"`
	HighVariation []ProvinceEntry `json:"high_variation"`
}
