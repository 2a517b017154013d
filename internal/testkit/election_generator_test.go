package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/detectors"
)

func TestElectionGenerator_Basic(t *testing.T) {
	config := DefaultElectionConfig()
	config.Provinces = 4
	config.UnitsPerProvince = 3

	units, err := NewElectionGenerator(config).Generate()
	require.NoError(t, err)
	require.Len(t, units, 12)
	require.NoError(t, election.Validate(units))

	mismatches := 0
	for _, u := range units {
		assert.NotEmpty(t, u.UnitID)
		assert.Equal(t, u.ValidVotes, u.CandidateSum(), "unit %s candidate sum", u.UnitID)
		assert.Equal(t, u.Candidates[0].Party, u.WinnerName)
		assert.LessOrEqual(t, u.CountedStations, u.TotalStations)
		for i := 1; i < len(u.Candidates); i++ {
			assert.GreaterOrEqual(t, u.Candidates[i-1].VoteCount, u.Candidates[i].VoteCount)
		}
		if u.ComponentSum() != u.TurnoutCount {
			mismatches++
		}
	}
	assert.Equal(t, config.MismatchUnits, mismatches)
}

func TestElectionGenerator_Deterministic(t *testing.T) {
	a, err := NewElectionGenerator(DefaultElectionConfig()).Generate()
	require.NoError(t, err)
	b, err := NewElectionGenerator(DefaultElectionConfig()).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestElectionGenerator_RejectsBadConfig(t *testing.T) {
	config := DefaultElectionConfig()
	config.CandidatesPerUnit = 1
	_, err := NewElectionGenerator(config).Generate()
	assert.Error(t, err)

	config = DefaultElectionConfig()
	config.Provinces = 1
	config.UnitsPerProvince = 2
	_, err = NewElectionGenerator(config).Generate()
	assert.Error(t, err)
}

func TestElectionGenerator_PlantedUnitsAreFlagged(t *testing.T) {
	config := DefaultElectionConfig()
	config.MismatchUnits = 0

	units, err := NewElectionGenerator(config).Generate()
	require.NoError(t, err)

	report, err := detectors.NewEngine(anomaly.DefaultThresholds(), true).Run(context.Background(), units)
	require.NoError(t, err)

	var planted []string
	for _, u := range units {
		if u.EffectiveTurnoutPct() > 96 {
			planted = append(planted, u.UnitID)
		}
	}
	require.Len(t, planted, config.AnomalousUnits)
	for _, id := range planted {
		flags := report.FlagsByUnit[id]
		require.NotEmpty(t, flags, "planted unit %s", id)

		categories := map[anomaly.Category]bool{}
		for _, f := range flags {
			categories[f.Category] = true
		}
		assert.True(t, categories[anomaly.CategoryTurnout], "unit %s turnout flag", id)
		assert.True(t, categories[anomaly.CategoryInvalid], "unit %s invalid flag", id)
	}
	assert.Equal(t, 0, report.MathConsistency.Summary.TurnoutMathErrors)
}
