package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
)

func sampleReport() *anomaly.AnomalyReport {
	r := &anomaly.AnomalyReport{}
	r.Turnout.Outliers = []anomaly.TurnoutItem{
		{UnitRef: anomaly.UnitRef{UnitID: "u1"}, TurnoutPct: 10, ZScore: -5.1, Flag: "abnormally low turnout", Severity: anomaly.SeverityHigh},
		{UnitRef: anomaly.UnitRef{UnitID: "u2"}, TurnoutPct: 99.9, ZScore: 2.8, Flag: "abnormally high turnout", Severity: anomaly.SeverityMedium},
	}
	r.InvalidBallots.Outliers = []anomaly.RateItem{
		{UnitRef: anomaly.UnitRef{UnitID: "u1"}, Rate: 9.5, Votes: 12345, Flag: "abnormally high invalid ballots", Severity: anomaly.SeverityHigh},
	}
	r.WastedVotes.Outliers = []anomaly.RateItem{
		{UnitRef: anomaly.UnitRef{UnitID: "u3"}, Rate: 21, Votes: 2100, InvalidVotes: 1000, BlankVotes: 1100, Flag: "high wasted votes", Severity: anomaly.SeverityHigh},
	}
	r.WinnerDominance.Extreme = []anomaly.DominanceItem{
		{UnitRef: anomaly.UnitRef{UnitID: "u1"}, Winner: "Party A", WinnerPct: 65, Margin: 40, Flag: "landslide win (>60%)", Severity: anomaly.SeverityMedium},
	}
	return r
}

func TestCollectFlags(t *testing.T) {
	flags := CollectFlags(sampleReport())

	require.Len(t, flags, 5)
	assert.Equal(t, anomaly.CategoryTurnout, flags[0].Category)
	assert.Equal(t, "turnout 10% (z=-5.1)", flags[0].Detail)
	assert.Equal(t, anomaly.CategoryInvalid, flags[2].Category)
	assert.Equal(t, "invalid ballots 9.5% (12,345 ballots)", flags[2].Detail)
	assert.Equal(t, anomaly.CategoryWasted, flags[3].Category)
	assert.Equal(t, anomaly.CategoryDominance, flags[4].Category)
	assert.Equal(t, "Party A won 65% (margin 40%)", flags[4].Detail)

	payload, ok := flags[3].Payload.(anomaly.WastedPayload)
	require.True(t, ok)
	assert.Equal(t, int64(1100), payload.BlankVotes)
}

func TestGroupByUnit_KeepsAllCategories(t *testing.T) {
	groups := GroupByUnit(CollectFlags(sampleReport()))

	require.Len(t, groups["u1"], 3)
	assert.Equal(t, anomaly.CategoryTurnout, groups["u1"][0].Category)
	assert.Equal(t, anomaly.CategoryInvalid, groups["u1"][1].Category)
	assert.Equal(t, anomaly.CategoryDominance, groups["u1"][2].Category)
	assert.Len(t, groups["u2"], 1)
	assert.Len(t, groups["u3"], 1)
}

func TestFinalize(t *testing.T) {
	r := sampleReport()
	Finalize(r, 12)

	assert.Len(t, r.AllFlags, 5)
	assert.Equal(t, 3, r.Metadata.FlaggedUnits)
	assert.Equal(t, 25.0, r.Metadata.FlaggedPct)
	assert.Equal(t, 12, r.Metadata.TotalUnits)
	assert.Equal(t, anomaly.AnalysisCategories, r.Metadata.AnalysisCategories)
	assert.Equal(t, anomaly.RiskLow, r.Risk.Level)
	assert.Equal(t, []string{"u1", "u2", "u3"}, FlaggedUnits(r.AllFlags))
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name    string
		benford bool
		round   bool
		lowCV   bool
		want    anomaly.RiskLevel
	}{
		{"no signals", false, false, false, anomaly.RiskLow},
		{"benford only", true, false, false, anomaly.RiskMedium},
		{"round and variance", false, true, true, anomaly.RiskHigh},
		{"all three", true, true, true, anomaly.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &anomaly.AnomalyReport{}
			if tt.benford {
				r.Benford.Valid = true
				r.Benford.Summary.Verdict = anomaly.VerdictNonConforming
			}
			r.VotePatterns.RoundNumbers.Suspicious = tt.round
			r.VotePatterns.Variance.Suspicious = tt.lowCV

			risk := AssessRisk(r)
			assert.Equal(t, tt.want, risk.Level)
			assert.Len(t, risk.Signals, risk.SignalCount)
		})
	}
}

func TestAssessRisk_ReviewVerdictIsNotASignal(t *testing.T) {
	r := &anomaly.AnomalyReport{}
	r.Benford.Valid = true
	r.Benford.Summary.Verdict = anomaly.VerdictReview
	r.Benford.Summary.PValue = 0.03

	risk := AssessRisk(r)
	assert.Equal(t, anomaly.RiskLow, risk.Level)
	assert.Empty(t, risk.Signals)
	assert.Contains(t, risk.Description, "p = 0.03 is review_recommended and not counted")
}
