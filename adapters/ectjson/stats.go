package ectjson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"voteaudit/domain/election"
	"voteaudit/internal"
	apperrors "voteaudit/internal/errors"
)

const defaultPartyColor = "#999"

// StatsConfig locates the raw feed documents. Each location is a file path or
// an http(s) URL. Provinces and Parties are optional lookup tables.
type StatsConfig struct {
	Stats     string
	Provinces string
	Parties   string
	Timeout   time.Duration
}

// StatsSource flattens the nested stats_cons document
// (result_province[].constituencies[].candidates[]) into unit records.
type StatsSource struct {
	config StatsConfig
	client *http.Client
	logger *internal.Logger
}

// NewStatsSource creates a source over the raw feed
func NewStatsSource(config StatsConfig) *StatsSource {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &StatsSource{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: internal.DefaultLogger,
	}
}

func (s *StatsSource) Name() string { return s.config.Stats }

type partyInfo struct {
	name  string
	color string
}

// LoadUnits fetches the documents and flattens constituencies. Aggregate
// entries with neither turnout nor valid votes are skipped.
func (s *StatsSource) LoadUnits(ctx context.Context) ([]election.UnitRecord, error) {
	statsRaw, err := s.fetch(ctx, s.config.Stats)
	if err != nil {
		return nil, apperrors.SourceError(s.config.Stats, err)
	}
	if !gjson.ValidBytes(statsRaw) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s is not valid JSON", s.config.Stats))
	}

	provinces := map[string]string{}
	if s.config.Provinces != "" {
		raw, err := s.fetch(ctx, s.config.Provinces)
		if err != nil {
			return nil, apperrors.SourceError(s.config.Provinces, err)
		}
		provinces = ProvinceNames(raw)
	}
	parties := map[int64]partyInfo{}
	if s.config.Parties != "" {
		raw, err := s.fetch(ctx, s.config.Parties)
		if err != nil {
			return nil, apperrors.SourceError(s.config.Parties, err)
		}
		parties = partyTable(raw)
	}

	units := FlattenStats(statsRaw, provinces, parties)
	s.logger.Info("[StatsSource] flattened %d constituencies from %s", len(units), s.config.Stats)
	return units, nil
}

func (s *StatsSource) fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", location, resp.StatusCode)
	}
	s.logger.Debug("[StatsSource] GET %s: %d", location, resp.StatusCode)
	return io.ReadAll(resp.Body)
}

// ProvinceNames reads {"province": [{"prov_id", "province"}]} or a bare array.
func ProvinceNames(raw []byte) map[string]string {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		doc = doc.Get("province")
	}
	names := make(map[string]string)
	doc.ForEach(func(_, p gjson.Result) bool {
		names[p.Get("prov_id").String()] = p.Get("province").String()
		return true
	})
	return names
}

func partyTable(raw []byte) map[int64]partyInfo {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		doc = doc.Get("party")
	}
	table := make(map[int64]partyInfo)
	doc.ForEach(func(_, p gjson.Result) bool {
		color := p.Get("color").String()
		if color == "" {
			color = defaultPartyColor
		}
		table[p.Get("id").Int()] = partyInfo{name: p.Get("name").String(), color: color}
		return true
	})
	return table
}

// FlattenStats converts the stats document into unit records in feed order.
func FlattenStats(raw []byte, provinces map[string]string, parties map[int64]partyInfo) []election.UnitRecord {
	var units []election.UnitRecord

	gjson.GetBytes(raw, "result_province").ForEach(func(_, prov gjson.Result) bool {
		provID := prov.Get("prov_id").String()
		provName, ok := provinces[provID]
		if !ok {
			provName = provID
		}

		prov.Get("constituencies").ForEach(func(_, cons gjson.Result) bool {
			if cons.Get("turn_out").Int() == 0 && cons.Get("valid_votes").Int() == 0 {
				return true
			}
			units = append(units, constituency(cons, provID, provName, parties))
			return true
		})
		return true
	})
	return units
}

func constituency(cons gjson.Result, provID, provName string, parties map[int64]partyInfo) election.UnitRecord {
	consID := cons.Get("cons_id").String()
	number := consID
	if i := strings.LastIndex(consID, "_"); i >= 0 {
		number = consID[i+1:]
	}

	u := election.UnitRecord{
		UnitID:           consID,
		Constituency:     fmt.Sprintf("%s เขต %s", provName, number),
		Province:         provName,
		ProvID:           provID,
		RegisteredVoters: cons.Get("registered_vote").Int(),
		TurnoutCount:     cons.Get("turn_out").Int(),
		TurnoutPct:       cons.Get("percent_turn_out").Float(),
		ValidVotes:       cons.Get("valid_votes").Int(),
		InvalidVotes:     cons.Get("invalid_votes").Int(),
		BlankVotes:       cons.Get("blank_votes").Int(),
		TotalStations:    int(cons.Get("total_vote_stations").Int()),
		CountedStations:  int(cons.Get("counted_vote_stations").Int()),
		PercentCounted:   cons.Get("percent_count").Float(),
		Paused:           cons.Get("pause_report").Bool(),
	}

	cons.Get("candidates").ForEach(func(_, c gjson.Result) bool {
		party, ok := parties[c.Get("party_id").Int()]
		if !ok {
			party = partyInfo{name: "party_" + c.Get("party_id").String(), color: defaultPartyColor}
		}
		name := c.Get("mp_app_name").String()
		if name == "" {
			name = c.Get("mp_app_id").String()
		}
		rank := int(c.Get("mp_app_rank").Int())
		u.Candidates = append(u.Candidates, election.CandidateResult{
			Name:      name,
			Party:     party.name,
			VoteCount: c.Get("mp_app_vote").Int(),
			Rank:      rank,
		})
		if rank == 1 {
			u.WinnerName = party.name
			u.WinnerColor = party.color
			u.WinnerVotes = c.Get("mp_app_vote").Int()
		}
		return true
	})
	election.SortCandidates(u.Candidates)
	return u
}
