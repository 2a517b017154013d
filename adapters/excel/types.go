package excel

// RawRowData represents a row of raw sheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents one sheet read from a workbook or CSV file
type ExcelData struct {
	Headers []string     // Column headers, trimmed and lower-cased
	Rows    []RawRowData // Data rows
}

// Column names of the unit sheet.
const (
	ColUnitID          = "unit_id"
	ColConstituency    = "constituency"
	ColProvince        = "province"
	ColProvID          = "prov_id"
	ColRegistered      = "registered_voters"
	ColTurnoutCount    = "turnout_count"
	ColTurnoutPct      = "turnout_pct"
	ColValidVotes      = "valid_votes"
	ColInvalidVotes    = "invalid_votes"
	ColBlankVotes      = "blank_votes"
	ColTotalStations   = "total_stations"
	ColCountedStations = "counted_stations"
	ColPercentCounted  = "percent_counted"
	ColPaused          = "paused"
	ColWinnerName      = "winner_name"
	ColWinnerColor     = "winner_color"
	ColWinnerVotes     = "winner_votes"
)

// UnitColumns is the canonical column order written by WriteUnits.
var UnitColumns = []string{
	ColUnitID, ColConstituency, ColProvince, ColProvID,
	ColRegistered, ColTurnoutCount, ColTurnoutPct,
	ColValidVotes, ColInvalidVotes, ColBlankVotes,
	ColTotalStations, ColCountedStations, ColPercentCounted, ColPaused,
	ColWinnerName, ColWinnerColor, ColWinnerVotes,
}

// Column names of the candidate sheet.
const (
	ColCandName  = "name"
	ColCandParty = "party"
	ColCandVotes = "vote_count"
	ColCandRank  = "rank"
)

// CandidateColumns is the canonical candidate sheet column order.
var CandidateColumns = []string{ColUnitID, ColCandName, ColCandParty, ColCandVotes, ColCandRank}
