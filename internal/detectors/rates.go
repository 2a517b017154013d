package detectors

import (
	"context"
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// rateMetric describes one excess-rate metric over turnout.
type rateMetric struct {
	name    string
	label   string
	bins    []float64
	highPct func(anomaly.Thresholds) float64
	// votes returns the numerator; the rate is votes/turnout*100.
	votes func(u election.UnitRecord) int64
	// split keeps the invalid/blank breakdown on wasted rows.
	split bool
}

var (
	invalidMetric = rateMetric{
		name:    "invalid_rate",
		label:   LabelInvalidHigh,
		bins:    profiling.InvalidBins,
		highPct: func(th anomaly.Thresholds) float64 { return th.InvalidHighPct },
		votes:   func(u election.UnitRecord) int64 { return u.InvalidVotes },
	}
	blankMetric = rateMetric{
		name:    "blank_rate",
		label:   LabelBlankHigh,
		bins:    profiling.BlankBins,
		highPct: func(th anomaly.Thresholds) float64 { return th.BlankHighPct },
		votes:   func(u election.UnitRecord) int64 { return u.BlankVotes },
	}
	wastedMetric = rateMetric{
		name:    "wasted_rate",
		label:   LabelWastedHigh,
		bins:    profiling.WastedBins,
		highPct: func(th anomaly.Thresholds) float64 { return th.WastedHighPct },
		votes:   func(u election.UnitRecord) int64 { return u.InvalidVotes + u.BlankVotes },
		split:   true,
	}
)

// RateExcess flags units whose rate exceeds the upper fence. Only excess is
// a risk direction, so the lower fence is ignored.
type RateExcess struct {
	metric     rateMetric
	thresholds anomaly.Thresholds
	assign     func(*anomaly.AnomalyReport, anomaly.RateResult)
}

// NewInvalidBallots creates the invalid-ballot rate detector.
func NewInvalidBallots(th anomaly.Thresholds) *RateExcess {
	return &RateExcess{metric: invalidMetric, thresholds: th, assign: func(r *anomaly.AnomalyReport, res anomaly.RateResult) {
		r.InvalidBallots = res
	}}
}

// NewBlankVotes creates the blank-ballot rate detector.
func NewBlankVotes(th anomaly.Thresholds) *RateExcess {
	return &RateExcess{metric: blankMetric, thresholds: th, assign: func(r *anomaly.AnomalyReport, res anomaly.RateResult) {
		r.BlankVotes = res
	}}
}

// NewWastedVotes creates the invalid-plus-blank rate detector.
func NewWastedVotes(th anomaly.Thresholds) *RateExcess {
	return &RateExcess{metric: wastedMetric, thresholds: th, assign: func(r *anomaly.AnomalyReport, res anomaly.RateResult) {
		r.WastedVotes = res
	}}
}

func (d *RateExcess) Name() string { return d.metric.name }

func (d *RateExcess) Description() string {
	return "Upper IQR fence on " + d.metric.name
}

func (d *RateExcess) Analyze(ctx context.Context, units []election.UnitRecord, report *anomaly.AnomalyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.assign(report, analyzeRate(units, d.metric, d.thresholds))
	return nil
}

// AnalyzeInvalid computes the invalid-ballot rate result.
func AnalyzeInvalid(units []election.UnitRecord, th anomaly.Thresholds) anomaly.RateResult {
	return analyzeRate(units, invalidMetric, th)
}

// AnalyzeBlank computes the blank-ballot rate result.
func AnalyzeBlank(units []election.UnitRecord, th anomaly.Thresholds) anomaly.RateResult {
	return analyzeRate(units, blankMetric, th)
}

// AnalyzeWasted computes the wasted-ballot rate result.
func AnalyzeWasted(units []election.UnitRecord, th anomaly.Thresholds) anomaly.RateResult {
	return analyzeRate(units, wastedMetric, th)
}

func analyzeRate(units []election.UnitRecord, m rateMetric, th anomaly.Thresholds) anomaly.RateResult {
	items := make([]anomaly.RateItem, 0, len(units))
	rates := make([]float64, 0, len(units))
	for _, u := range units {
		if u.TurnoutCount <= 0 {
			continue
		}
		votes := m.votes(u)
		rate := profiling.Round2(float64(votes) / float64(u.TurnoutCount) * 100)
		it := anomaly.RateItem{
			UnitRef:      anomaly.RefFor(u),
			Rate:         rate,
			Votes:        votes,
			TurnoutCount: u.TurnoutCount,
			Flag:         LabelNormal,
		}
		if m.split {
			it.InvalidVotes = u.InvalidVotes
			it.BlankVotes = u.BlankVotes
		}
		items = append(items, it)
		rates = append(rates, rate)
	}

	result := anomaly.RateResult{
		Metric:       m.name,
		Distribution: profiling.Histogram(rates, m.bins),
		Outliers:     []anomaly.RateItem{},
		All:          items,
	}

	fence, err := profiling.ComputeFenceWith(rates, th.FenceMultiplier)
	if err != nil {
		result.Reason = insufficientReason(len(rates), 2)
		result.Summary.Total = len(rates)
		return result
	}

	high := m.highPct(th)
	for i := range items {
		it := &items[i]
		it.ZScore = profiling.Round2(fence.ZScore(it.Rate))
		if fence.Above(it.Rate) {
			it.IsOutlier = true
			it.Flag = m.label
			it.Severity = anomaly.SeverityFor(it.Rate > high)
			result.Outliers = append(result.Outliers, *it)
		}
	}

	sort.SliceStable(result.Outliers, func(i, j int) bool {
		return result.Outliers[i].Rate > result.Outliers[j].Rate
	})

	result.Valid = true
	result.Summary = profiling.Summary(fence, len(result.Outliers))
	return result
}
