package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"voteaudit/domain/election"
)

// ElectionGeneratorConfig configures the synthetic election generator
type ElectionGeneratorConfig struct {
	Provinces         int      `json:"provinces"`
	UnitsPerProvince  int      `json:"units_per_province"`
	CandidatesPerUnit int      `json:"candidates_per_unit"`
	Parties           []string `json:"parties"`
	MeanTurnoutPct    float64  `json:"mean_turnout_pct"`
	TurnoutStdev      float64  `json:"turnout_stdev"`
	InvalidPct        float64  `json:"invalid_pct"`
	BlankPct          float64  `json:"blank_pct"`
	IncompleteRate    float64  `json:"incomplete_rate"`
	// AnomalousUnits receive implausible turnout and invalid-ballot rates.
	AnomalousUnits int `json:"anomalous_units"`
	// MismatchUnits report a turnout that does not equal valid+invalid+blank.
	MismatchUnits int   `json:"mismatch_units"`
	Seed          int64 `json:"seed"`
}

// DefaultElectionConfig returns a medium-sized, mostly clean election
func DefaultElectionConfig() ElectionGeneratorConfig {
	return ElectionGeneratorConfig{
		Provinces:         20,
		UnitsPerProvince:  5,
		CandidatesPerUnit: 6,
		Parties:           []string{"Orange", "Blue", "Red", "Green", "Purple", "Yellow", "Teal", "Grey"},
		MeanTurnoutPct:    66,
		TurnoutStdev:      4,
		InvalidPct:        2.5,
		BlankPct:          4,
		IncompleteRate:    0.1,
		AnomalousUnits:    2,
		MismatchUnits:     1,
		Seed:              42,
	}
}

var partyColors = map[string]string{
	"Orange": "#F47933",
	"Blue":   "#1D4E9E",
	"Red":    "#E3000F",
	"Green":  "#2E8B57",
	"Purple": "#6A0DAD",
	"Yellow": "#FFD100",
	"Teal":   "#008080",
	"Grey":   "#808080",
}

// ElectionGenerator generates deterministic per-constituency results
type ElectionGenerator struct {
	config ElectionGeneratorConfig
	rng    *rand.Rand
}

// NewElectionGenerator creates a new generator; the same seed yields the same units
func NewElectionGenerator(config ElectionGeneratorConfig) *ElectionGenerator {
	return &ElectionGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the full unit collection
func (g *ElectionGenerator) Generate() ([]election.UnitRecord, error) {
	cfg := g.config
	if cfg.Provinces < 1 || cfg.UnitsPerProvince < 1 {
		return nil, fmt.Errorf("provinces and units_per_province must be positive")
	}
	if cfg.CandidatesPerUnit < 2 || cfg.CandidatesPerUnit > len(cfg.Parties) {
		return nil, fmt.Errorf("candidates_per_unit must be between 2 and %d", len(cfg.Parties))
	}

	total := cfg.Provinces * cfg.UnitsPerProvince
	if cfg.AnomalousUnits+cfg.MismatchUnits > total {
		return nil, fmt.Errorf("more planted units (%d) than units (%d)", cfg.AnomalousUnits+cfg.MismatchUnits, total)
	}

	planted := g.rng.Perm(total)
	anomalous := make(map[int]bool)
	mismatch := make(map[int]bool)
	for i, idx := range planted[:cfg.AnomalousUnits+cfg.MismatchUnits] {
		if i < cfg.AnomalousUnits {
			anomalous[idx] = true
		} else {
			mismatch[idx] = true
		}
	}

	units := make([]election.UnitRecord, 0, total)
	for p := 1; p <= cfg.Provinces; p++ {
		// each province leans toward one party
		favourite := g.rng.Intn(len(cfg.Parties))
		for c := 1; c <= cfg.UnitsPerProvince; c++ {
			idx := len(units)
			u := g.generateUnit(p, c, favourite, anomalous[idx])
			if mismatch[idx] {
				u.TurnoutCount += int64(1 + g.rng.Intn(50))
			}
			units = append(units, u)
		}
	}
	return units, nil
}

func (g *ElectionGenerator) generateUnit(prov, cons, favourite int, anomalous bool) election.UnitRecord {
	cfg := g.config

	registered := int64(math.Round(math.Exp(11.9 + 0.25*g.rng.NormFloat64())))
	turnoutPct := clamp(cfg.MeanTurnoutPct+cfg.TurnoutStdev*g.rng.NormFloat64(), 20, 95)
	invalidPct := clamp(cfg.InvalidPct+0.6*g.rng.NormFloat64(), 0.1, 30)
	blankPct := clamp(cfg.BlankPct+0.8*g.rng.NormFloat64(), 0.1, 30)
	if anomalous {
		turnoutPct = 97 + g.rng.Float64()*2
		invalidPct = 12 + g.rng.Float64()*3
	}

	turnout := int64(math.Round(float64(registered) * turnoutPct / 100))
	invalid := int64(math.Round(float64(turnout) * invalidPct / 100))
	blank := int64(math.Round(float64(turnout) * blankPct / 100))
	valid := turnout - invalid - blank

	u := election.UnitRecord{
		UnitID:           fmt.Sprintf("%d_%d", prov, cons),
		Constituency:     fmt.Sprintf("Province %02d Constituency %d", prov, cons),
		Province:         fmt.Sprintf("Province %02d", prov),
		ProvID:           fmt.Sprintf("%d", prov),
		RegisteredVoters: registered,
		TurnoutCount:     turnout,
		TurnoutPct:       math.Round(float64(turnout)/float64(registered)*10000) / 100,
		ValidVotes:       valid,
		InvalidVotes:     invalid,
		BlankVotes:       blank,
		Candidates:       g.candidates(valid, favourite),
	}

	u.TotalStations = 150 + g.rng.Intn(150)
	u.CountedStations = u.TotalStations
	if g.rng.Float64() < cfg.IncompleteRate {
		u.CountedStations = u.TotalStations - 1 - g.rng.Intn(u.TotalStations/4)
		u.Paused = g.rng.Float64() < 0.3
	}
	u.PercentCounted = math.Round(float64(u.CountedStations)/float64(u.TotalStations)*10000) / 100

	winner := u.Candidates[0]
	u.WinnerName = winner.Party
	u.WinnerColor = partyColors[winner.Party]
	u.WinnerVotes = winner.VoteCount
	return u
}

// candidates splits valid votes across parties; the split always sums to valid.
func (g *ElectionGenerator) candidates(valid int64, favourite int) []election.CandidateResult {
	cfg := g.config
	order := g.rng.Perm(len(cfg.Parties))[:cfg.CandidatesPerUnit]

	weights := make([]float64, len(order))
	sum := 0.0
	for i, p := range order {
		w := g.rng.ExpFloat64()
		if p == favourite {
			w += 1.5
		}
		weights[i] = w
		sum += w
	}

	cands := make([]election.CandidateResult, len(order))
	var assigned int64
	for i, p := range order {
		votes := int64(float64(valid) * weights[i] / sum)
		if i == len(order)-1 {
			votes = valid - assigned
		}
		assigned += votes
		cands[i] = election.CandidateResult{
			Name:      fmt.Sprintf("%s candidate", cfg.Parties[p]),
			Party:     cfg.Parties[p],
			VoteCount: votes,
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].VoteCount > cands[j].VoteCount
	})
	for i := range cands {
		cands[i].Rank = i + 1
	}
	return cands
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
