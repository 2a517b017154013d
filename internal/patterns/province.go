package patterns

import (
	"sort"

	"voteaudit/domain/anomaly"
	"voteaudit/domain/election"
	"voteaudit/internal/profiling"
)

// Province flag labels.
const (
	LabelMonopoly      = "monopoly: one party won every constituency"
	LabelHighVariation = "turnout varies widely within the province"
)

type provinceGroup struct {
	name  string
	units []election.UnitRecord
}

// groupByProvince keeps provinces in order of first appearance.
func groupByProvince(units []election.UnitRecord) []*provinceGroup {
	index := make(map[string]*provinceGroup)
	var groups []*provinceGroup
	for _, u := range units {
		g, ok := index[u.Province]
		if !ok {
			g = &provinceGroup{name: u.Province}
			index[u.Province] = g
			groups = append(groups, g)
		}
		g.units = append(g.units, u)
	}
	return groups
}

// AnalyzeProvinces summarises each province and classifies it. Monopoly takes
// precedence over high variation, so a province lands in at most one list.
func AnalyzeProvinces(units []election.UnitRecord, th anomaly.Thresholds) anomaly.ProvinceResult {
	result := anomaly.ProvinceResult{
		Monopoly:      []anomaly.ProvinceEntry{},
		HighVariation: []anomaly.ProvinceEntry{},
	}

	for _, g := range groupByProvince(units) {
		entry, ok := summarise(g)
		if !ok {
			continue
		}
		entry.Pattern = Classify(entry, th)
		switch entry.Pattern {
		case anomaly.PatternMonopoly:
			entry.Flag = LabelMonopoly
			result.Monopoly = append(result.Monopoly, entry)
		case anomaly.PatternHighVariation:
			entry.Flag = LabelHighVariation
			result.HighVariation = append(result.HighVariation, entry)
		}
	}

	sort.SliceStable(result.Monopoly, func(i, j int) bool {
		return result.Monopoly[i].TotalCons > result.Monopoly[j].TotalCons
	})
	return result
}

// Classify applies the province rules in priority order.
func Classify(e anomaly.ProvinceEntry, th anomaly.Thresholds) anomaly.ProvincePattern {
	switch {
	case e.UniqueWinners == 1 && e.TotalCons >= th.MonopolyMinUnits:
		return anomaly.PatternMonopoly
	case e.TurnoutStdev > th.ProvinceTurnoutStdev:
		return anomaly.PatternHighVariation
	default:
		return anomaly.PatternNone
	}
}

func summarise(g *provinceGroup) (anomaly.ProvinceEntry, bool) {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, u := range g.units {
		if u.WinnerName == "" {
			continue
		}
		if _, seen := counts[u.WinnerName]; !seen {
			order = append(order, u.WinnerName)
		}
		counts[u.WinnerName]++
		total++
	}
	if total == 0 {
		return anomaly.ProvinceEntry{}, false
	}

	// ties resolve to the party seen first
	dominant := order[0]
	for _, party := range order[1:] {
		if counts[party] > counts[dominant] {
			dominant = party
		}
	}

	var turnouts, invalidRates []float64
	for _, u := range g.units {
		if pct := u.EffectiveTurnoutPct(); pct > 0 {
			turnouts = append(turnouts, pct)
		}
		if u.TurnoutCount > 0 {
			invalidRates = append(invalidRates, float64(u.InvalidVotes)/float64(u.TurnoutCount)*100)
		}
	}

	return anomaly.ProvinceEntry{
		Province:       g.name,
		ProvID:         g.units[0].ProvID,
		TotalCons:      total,
		UniqueWinners:  len(counts),
		DominantParty:  dominant,
		DominantCount:  counts[dominant],
		DominantPct:    profiling.Round(float64(counts[dominant])/float64(total)*100, 1),
		AvgTurnout:     profiling.Round(profiling.Mean(turnouts), 1),
		TurnoutStdev:   profiling.Round(profiling.SampleStdev(turnouts), 1),
		AvgInvalidRate: profiling.Round2(profiling.Mean(invalidRates)),
	}, true
}
