package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
)

func provUnit(id, prov, winner string, turnoutPct float64) election.UnitRecord {
	return election.UnitRecord{
		UnitID:           id,
		Province:         prov,
		ProvID:           prov[:1],
		WinnerName:       winner,
		RegisteredVoters: 1000,
		TurnoutCount:     int64(turnoutPct * 10),
		TurnoutPct:       turnoutPct,
		InvalidVotes:     int64(turnoutPct / 5),
	}
}

func TestAnalyzeProvinces(t *testing.T) {
	units := []election.UnitRecord{
		provUnit("a1", "Alpha", "Blue", 60),
		provUnit("a2", "Alpha", "Blue", 62),
		provUnit("a3", "Alpha", "Blue", 61),
		provUnit("b1", "Beta", "Blue", 40),
		provUnit("b2", "Beta", "Red", 75),
		provUnit("b3", "Beta", "Red", 58),
		provUnit("g1", "Gamma", "Red", 50),
		provUnit("g2", "Gamma", "Red", 85),
		provUnit("d1", "Delta", "Red", 60),
		provUnit("d2", "Delta", "Blue", 61),
		provUnit("e1", "Empty", "", 60),
	}

	res := AnalyzeProvinces(units, anomaly.DefaultThresholds())

	require.Len(t, res.Monopoly, 1)
	alpha := res.Monopoly[0]
	assert.Equal(t, "Alpha", alpha.Province)
	assert.Equal(t, 3, alpha.TotalCons)
	assert.Equal(t, 1, alpha.UniqueWinners)
	assert.Equal(t, "Blue", alpha.DominantParty)
	assert.Equal(t, 100.0, alpha.DominantPct)
	assert.Equal(t, 61.0, alpha.AvgTurnout)
	assert.Equal(t, 1.0, alpha.TurnoutStdev)
	assert.Equal(t, LabelMonopoly, alpha.Flag)

	// Gamma has a single winner but only two units, so variation decides.
	require.Len(t, res.HighVariation, 2)
	assert.Equal(t, "Beta", res.HighVariation[0].Province)
	assert.Equal(t, "Red", res.HighVariation[0].DominantParty)
	assert.Equal(t, 66.7, res.HighVariation[0].DominantPct)
	assert.Equal(t, "Gamma", res.HighVariation[1].Province)
	assert.Equal(t, anomaly.PatternHighVariation, res.HighVariation[1].Pattern)
}

func TestClassify_MonopolyTakesPrecedence(t *testing.T) {
	th := anomaly.DefaultThresholds()
	e := anomaly.ProvinceEntry{TotalCons: 4, UniqueWinners: 1, TurnoutStdev: 25}
	assert.Equal(t, anomaly.PatternMonopoly, Classify(e, th))

	e.UniqueWinners = 2
	assert.Equal(t, anomaly.PatternHighVariation, Classify(e, th))

	e.TurnoutStdev = 10
	assert.Equal(t, anomaly.PatternNone, Classify(e, th))
}

func TestAnalyzeProvinces_MonopolySortedBySize(t *testing.T) {
	var units []election.UnitRecord
	for _, id := range []string{"s1", "s2", "s3"} {
		units = append(units, provUnit(id, "Small", "Green", 60))
	}
	for _, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		units = append(units, provUnit(id, "Large", "Green", 60))
	}

	res := AnalyzeProvinces(units, anomaly.DefaultThresholds())

	require.Len(t, res.Monopoly, 2)
	assert.Equal(t, "Large", res.Monopoly[0].Province)
	assert.Equal(t, "Small", res.Monopoly[1].Province)
}
