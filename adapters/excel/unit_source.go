package excel

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"voteaudit/domain/election"
	"voteaudit/internal"
	apperrors "voteaudit/internal/errors"
)

// UnitSource loads unit records from a workbook (unit sheet plus optional
// candidate sheet) or from a CSV file with wide candidate columns.
type UnitSource struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewUnitSource creates a unit source for the given file
func NewUnitSource(config ExcelConfig) *UnitSource {
	return &UnitSource{config: config, logger: internal.DefaultLogger}
}

// Name returns the file path
func (s *UnitSource) Name() string {
	return s.config.FilePath
}

// LoadUnits reads and maps every unit row
func (s *UnitSource) LoadUnits(ctx context.Context) ([]election.UnitRecord, error) {
	reader := NewDataReader(s.config.FilePath)
	data, err := reader.ReadSheet(s.config.UnitSheet, true)
	if err != nil {
		return nil, apperrors.SourceError(s.Name(), err)
	}
	if err := requireColumns(data.Headers, ColUnitID); err != nil {
		return nil, err
	}

	units := make([]election.UnitRecord, 0, len(data.Rows))
	index := make(map[string]int, len(data.Rows))
	for i, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u, err := mapUnit(row)
		if err != nil {
			return nil, apperrors.InvalidInputCause(fmt.Errorf("row %d: %w", i+2, err))
		}
		index[u.UnitID] = len(units)
		units = append(units, u)
	}

	cands, err := s.readCandidateSheet(reader)
	if err != nil {
		return nil, err
	}
	for _, row := range cands {
		c, unitID, err := mapCandidate(row)
		if err != nil {
			return nil, apperrors.InvalidInputCause(err)
		}
		pos, ok := index[unitID]
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("candidate %q references unknown unit %q", c.Name, unitID))
		}
		units[pos].Candidates = append(units[pos].Candidates, c)
	}
	for i := range units {
		election.SortCandidates(units[i].Candidates)
	}

	s.logger.Info("[UnitSource] loaded %d units (%d candidate rows) from %s", len(units), len(cands), s.Name())
	return units, nil
}

func (s *UnitSource) readCandidateSheet(unitReader *DataReader) ([]RawRowData, error) {
	var (
		data *ExcelData
		err  error
	)
	switch {
	case s.config.CandidatesPath != "":
		data, err = NewDataReader(s.config.CandidatesPath).ReadSheet(s.config.CandidateSheet, true)
	case unitReader.FileType() == "xlsx" && s.config.CandidateSheet != "":
		data, err = unitReader.ReadSheet(s.config.CandidateSheet, false)
	}
	if err != nil {
		return nil, apperrors.SourceError(s.Name(), err)
	}
	if data == nil {
		return nil, nil
	}
	if err := requireColumns(data.Headers, ColUnitID, ColCandName, ColCandVotes); err != nil {
		return nil, err
	}
	return data.Rows, nil
}

func requireColumns(headers []string, cols ...string) error {
	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[h] = true
	}
	for _, c := range cols {
		if !have[c] {
			return apperrors.InvalidInput(fmt.Sprintf("missing required column %q", c))
		}
	}
	return nil
}

func mapUnit(row RawRowData) (election.UnitRecord, error) {
	u := election.UnitRecord{
		UnitID:       row[ColUnitID],
		Constituency: row[ColConstituency],
		Province:     row[ColProvince],
		ProvID:       row[ColProvID],
		WinnerName:   row[ColWinnerName],
		WinnerColor:  row[ColWinnerColor],
	}
	if u.UnitID == "" {
		return u, fmt.Errorf("unit_id is empty")
	}
	p := cellParser{row: row, unitID: u.UnitID}

	u.RegisteredVoters = p.int(ColRegistered)
	u.TurnoutCount = p.int(ColTurnoutCount)
	u.TurnoutPct = p.float(ColTurnoutPct)
	u.ValidVotes = p.int(ColValidVotes)
	u.InvalidVotes = p.int(ColInvalidVotes)
	u.BlankVotes = p.int(ColBlankVotes)
	u.TotalStations = int(p.int(ColTotalStations))
	u.CountedStations = int(p.int(ColCountedStations))
	u.PercentCounted = p.float(ColPercentCounted)
	u.Paused = p.bool(ColPaused)
	u.WinnerVotes = p.int(ColWinnerVotes)
	u.Candidates = p.wideCandidates()

	return u, p.err
}

func mapCandidate(row RawRowData) (election.CandidateResult, string, error) {
	unitID := row[ColUnitID]
	p := cellParser{row: row, unitID: unitID}
	c := election.CandidateResult{
		Name:      row[ColCandName],
		Party:     row[ColCandParty],
		VoteCount: p.int(ColCandVotes),
		Rank:      int(p.int(ColCandRank)),
	}
	return c, unitID, p.err
}

// cellParser coerces cells and keeps the first error.
type cellParser struct {
	row    RawRowData
	unitID string
	err    error
}

func (p *cellParser) fail(col, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("unit %q: column %s: cannot parse %q: %w", p.unitID, col, v, err)
	}
}

func (p *cellParser) float(col string) float64 {
	v := strings.ReplaceAll(strings.TrimSuffix(p.row[col], "%"), ",", "")
	if v == "" {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		p.fail(col, p.row[col], err)
	}
	return f
}

func (p *cellParser) int(col string) int64 {
	f := p.float(col)
	if f != math.Trunc(f) {
		p.fail(col, p.row[col], fmt.Errorf("not a whole number"))
		return 0
	}
	return int64(f)
}

func (p *cellParser) bool(col string) bool {
	v := strings.ToLower(p.row[col])
	switch v {
	case "":
		return false
	case "yes", "y":
		return true
	case "no", "n":
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		p.fail(col, p.row[col], err)
	}
	return b
}

// wideCandidates reads candidate_<n>_name|party|votes columns, n from 1.
func (p *cellParser) wideCandidates() []election.CandidateResult {
	var out []election.CandidateResult
	for n := 1; ; n++ {
		prefix := "candidate_" + strconv.Itoa(n) + "_"
		name, ok := p.row[prefix+"name"]
		if !ok {
			break
		}
		if name == "" && p.row[prefix+"votes"] == "" {
			continue
		}
		out = append(out, election.CandidateResult{
			Name:      name,
			Party:     p.row[prefix+"party"],
			VoteCount: p.int(prefix + "votes"),
			Rank:      n,
		})
	}
	return out
}
