// Package ectjson reads unit records from election-commission JSON documents:
// the flattened per-unit file and the raw nested stats feed.
package ectjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"voteaudit/domain/election"
	"voteaudit/internal"
	apperrors "voteaudit/internal/errors"
)

// flatCandidate is one candidate entry of the flattened file.
type flatCandidate struct {
	Name     string `json:"name"`
	Party    string `json:"party"`
	ECTVotes int64  `json:"ect_votes"`
	Rank     int    `json:"rank"`
}

// flatUnit is one unit of the flattened file. Field names follow the
// commission's export.
type flatUnit struct {
	UnitID          string          `json:"unit_id"`
	Constituency    string          `json:"constituency"`
	Province        string          `json:"province"`
	ProvID          string          `json:"prov_id"`
	RegisteredVote  int64           `json:"registered_vote"`
	TurnOut         int64           `json:"turn_out"`
	PercentTurnOut  float64         `json:"percent_turn_out"`
	ValidVotes      int64           `json:"valid_votes"`
	InvalidVotes    int64           `json:"invalid_votes"`
	BlankVotes      int64           `json:"blank_votes"`
	TotalStations   int             `json:"total_stations"`
	CountedStations int             `json:"counted_stations"`
	PercentCount    float64         `json:"percent_count"`
	PauseReport     bool            `json:"pause_report"`
	Winner          string          `json:"winner"`
	WinnerColor     string          `json:"winner_color"`
	WinnerVotes     int64           `json:"winner_votes"`
	Candidates      []flatCandidate `json:"candidates"`
}

// flatDocument is the decoding view; units stay raw until decoded one by one.
type flatDocument struct {
	Units []json.RawMessage `json:"units"`
}

type flatOutput struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Units    []flatUnit             `json:"units"`
}

// FileSource reads the flattened {"units": [...]} document.
type FileSource struct {
	path   string
	logger *internal.Logger
}

// NewFileSource creates a source for the flattened file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, logger: internal.DefaultLogger}
}

func (s *FileSource) Name() string { return s.path }

// LoadUnits decodes the file. A bare top-level array of units is accepted too.
func (s *FileSource) LoadUnits(ctx context.Context) ([]election.UnitRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.SourceError(s.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units, err := DecodeFlat(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[FileSource] loaded %d units from %s", len(units), s.path)
	return units, nil
}

// DecodeFlat decodes a flattened document held in memory. Units are decoded
// one by one so a bad field is reported against its unit.
func DecodeFlat(raw []byte) ([]election.UnitRecord, error) {
	var items []json.RawMessage
	if len(raw) > 0 && firstNonSpace(raw) == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperrors.InvalidInputCause(fmt.Errorf("decode units: %w", err))
		}
	} else {
		var doc flatDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, apperrors.InvalidInputCause(fmt.Errorf("decode units: %w", err))
		}
		items = doc.Units
	}

	units, err := election.DecodeUnits(items, decodeFlatUnit)
	if err != nil {
		return nil, apperrors.InvalidInputCause(err)
	}
	return units, nil
}

func decodeFlatUnit(item json.RawMessage) (election.UnitRecord, error) {
	var f flatUnit
	if err := json.Unmarshal(item, &f); err != nil {
		return election.UnitRecord{}, err
	}
	return f.record(), nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

func (f flatUnit) record() election.UnitRecord {
	u := election.UnitRecord{
		UnitID:           f.UnitID,
		Constituency:     f.Constituency,
		Province:         f.Province,
		ProvID:           f.ProvID,
		RegisteredVoters: f.RegisteredVote,
		TurnoutCount:     f.TurnOut,
		TurnoutPct:       f.PercentTurnOut,
		ValidVotes:       f.ValidVotes,
		InvalidVotes:     f.InvalidVotes,
		BlankVotes:       f.BlankVotes,
		TotalStations:    f.TotalStations,
		CountedStations:  f.CountedStations,
		PercentCounted:   f.PercentCount,
		Paused:           f.PauseReport,
		WinnerName:       f.Winner,
		WinnerColor:      f.WinnerColor,
		WinnerVotes:      f.WinnerVotes,
	}
	for _, c := range f.Candidates {
		u.Candidates = append(u.Candidates, election.CandidateResult{
			Name: c.Name, Party: c.Party, VoteCount: c.ECTVotes, Rank: c.Rank,
		})
	}
	election.SortCandidates(u.Candidates)
	return u
}

func flatten(u election.UnitRecord) flatUnit {
	f := flatUnit{
		UnitID:          u.UnitID,
		Constituency:    u.Constituency,
		Province:        u.Province,
		ProvID:          u.ProvID,
		RegisteredVote:  u.RegisteredVoters,
		TurnOut:         u.TurnoutCount,
		PercentTurnOut:  u.TurnoutPct,
		ValidVotes:      u.ValidVotes,
		InvalidVotes:    u.InvalidVotes,
		BlankVotes:      u.BlankVotes,
		TotalStations:   u.TotalStations,
		CountedStations: u.CountedStations,
		PercentCount:    u.PercentCounted,
		PauseReport:     u.Paused,
		Winner:          u.WinnerName,
		WinnerColor:     u.WinnerColor,
		WinnerVotes:     u.WinnerVotes,
	}
	for _, c := range u.Candidates {
		f.Candidates = append(f.Candidates, flatCandidate{Name: c.Name, Party: c.Party, ECTVotes: c.VoteCount, Rank: c.Rank})
	}
	return f
}

// WriteFile writes units in the flattened format, with a small metadata block.
func WriteFile(path string, units []election.UnitRecord) error {
	doc := flatOutput{
		Metadata: map[string]interface{}{
			"generated_at": time.Now().UTC().Format(time.RFC3339),
			"total_units":  len(units),
		},
		Units: make([]flatUnit, len(units)),
	}
	for i, u := range units {
		doc.Units[i] = flatten(u)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode units: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
