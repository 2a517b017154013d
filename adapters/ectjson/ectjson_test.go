package ectjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteaudit/domain/core"
	"voteaudit/domain/election"
	apperrors "voteaudit/internal/errors"
)

const statsDoc = `{
  "turn_out": 3000,
  "result_province": [
    {
      "prov_id": "10",
      "constituencies": [
        {"cons_id": "BKK_0", "turn_out": 0, "valid_votes": 0},
        {
          "cons_id": "BKK_1", "registered_vote": 1000, "turn_out": 700, "percent_turn_out": 70,
          "valid_votes": 650, "invalid_votes": 30, "blank_votes": 20,
          "total_vote_stations": 10, "counted_vote_stations": 9, "percent_count": 90,
          "pause_report": true,
          "candidates": [
            {"mp_app_id": "c2", "party_id": 2, "mp_app_vote": 250, "mp_app_rank": 2},
            {"mp_app_id": "c1", "party_id": 1, "mp_app_vote": 400, "mp_app_rank": 1}
          ]
        }
      ]
    },
    {
      "prov_id": "50",
      "constituencies": [
        {
          "cons_id": "CMI_3", "turn_out": 500, "valid_votes": 480,
          "candidates": [{"mp_app_id": "c9", "party_id": 9, "mp_app_vote": 480, "mp_app_rank": 1}]
        }
      ]
    }
  ]
}`

const provinceDoc = `{"province": [{"prov_id": "10", "province": "Bangkok"}]}`

const partyDoc = `[{"id": "1", "name": "Red", "color": "#f00"}, {"id": 2, "name": "Blue"}]`

func TestFlattenStats(t *testing.T) {
	units := FlattenStats([]byte(statsDoc), ProvinceNames([]byte(provinceDoc)), partyTable([]byte(partyDoc)))
	require.Len(t, units, 2)

	bkk := units[0]
	assert.Equal(t, "BKK_1", bkk.UnitID)
	assert.Equal(t, "Bangkok", bkk.Province)
	assert.Equal(t, "Bangkok เขต 1", bkk.Constituency)
	assert.Equal(t, int64(1000), bkk.RegisteredVoters)
	assert.Equal(t, 70.0, bkk.TurnoutPct)
	assert.True(t, bkk.Paused)
	assert.Equal(t, 9, bkk.CountedStations)
	assert.Equal(t, "Red", bkk.WinnerName)
	assert.Equal(t, "#f00", bkk.WinnerColor)
	assert.Equal(t, int64(400), bkk.WinnerVotes)
	require.Len(t, bkk.Candidates, 2)
	assert.Equal(t, "c1", bkk.Candidates[0].Name)
	assert.Equal(t, "Blue", bkk.Candidates[1].Party)

	cmi := units[1]
	assert.Equal(t, "50", cmi.Province, "unknown province falls back to its id")
	assert.Equal(t, "party_9", cmi.WinnerName)
	assert.Equal(t, defaultPartyColor, cmi.WinnerColor)
}

func TestStatsSource_HTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats_cons.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statsDoc))
	})
	mux.HandleFunc("/info_party_overview.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(partyDoc))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewStatsSource(StatsConfig{
		Stats:   srv.URL + "/stats_cons.json",
		Parties: srv.URL + "/info_party_overview.json",
	})
	units, err := src.LoadUnits(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "10", units[0].Province)
	assert.Equal(t, "Red", units[0].WinnerName)

	_, err = NewStatsSource(StatsConfig{Stats: srv.URL + "/missing.json"}).LoadUnits(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSourceError, apperrors.GetCode(err))
}

func TestStatsSource_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewStatsSource(StatsConfig{Stats: path}).LoadUnits(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestFlatFileRoundTrip(t *testing.T) {
	units := []election.UnitRecord{{
		UnitID: "u1", Constituency: "C1", Province: "P", ProvID: "1",
		RegisteredVoters: 100, TurnoutCount: 80, TurnoutPct: 80,
		ValidVotes: 75, InvalidVotes: 3, BlankVotes: 2,
		TotalStations: 2, CountedStations: 2, PercentCounted: 100,
		WinnerName: "Red", WinnerColor: "#f00", WinnerVotes: 50,
		Candidates: []election.CandidateResult{
			{Name: "a", Party: "Red", VoteCount: 50, Rank: 1},
			{Name: "b", Party: "Blue", VoteCount: 25, Rank: 2},
		},
	}}
	path := filepath.Join(t.TempDir(), "election_data.json")
	require.NoError(t, WriteFile(path, units))

	src := NewFileSource(path)
	assert.Equal(t, path, src.Name())
	got, err := src.LoadUnits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, units, got)
}

func TestDecodeFlat(t *testing.T) {
	t.Run("bare array with commission field names", func(t *testing.T) {
		raw := `[{"unit_id": "x", "turn_out": 10, "registered_vote": 20, "pause_report": true,
		  "candidates": [{"name": "n2", "ect_votes": 3, "rank": 2}, {"name": "n1", "ect_votes": 7, "rank": 1}]}]`
		units, err := DecodeFlat([]byte(raw))
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, int64(10), units[0].TurnoutCount)
		assert.Equal(t, int64(20), units[0].RegisteredVoters)
		assert.True(t, units[0].Paused)
		assert.Equal(t, "n1", units[0].Candidates[0].Name)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeFlat([]byte(`{"units": 5}`))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("non-numeric count names the unit", func(t *testing.T) {
		raw := `{"units": [{"unit_id": "OK-1", "valid_votes": 5}, {"unit_id": "BAD-42", "valid_votes": "abc"}]}`
		_, err := DecodeFlat([]byte(raw))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
		assert.ErrorIs(t, err, core.ErrInvalidUnit)
		assert.Contains(t, err.Error(), `"BAD-42"`)
		assert.Equal(t, 1, strings.Count(err.Error(), "valid_votes"))
	})

	t.Run("unit without id is named by position", func(t *testing.T) {
		_, err := DecodeFlat([]byte(`[{"unit_id": "a"}, {"turn_out": true}]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"#1"`)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource("/nonexistent.json").LoadUnits(context.Background())
		assert.Equal(t, apperrors.CodeSourceError, apperrors.GetCode(err))
	})
}
