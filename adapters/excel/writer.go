package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"voteaudit/domain/election"
)

// WriteUnits writes units to path. A .csv path gets a single sheet with wide
// candidate columns; anything else becomes a workbook with a unit sheet and a
// candidate sheet named as in DefaultExcelConfig.
func WriteUnits(path string, units []election.UnitRecord) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return writeCSV(path, units)
	}
	return writeWorkbook(path, units)
}

func writeWorkbook(path string, units []election.UnitRecord) error {
	cfg := DefaultExcelConfig(path)
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), cfg.UnitSheet); err != nil {
		return fmt.Errorf("failed to name unit sheet: %w", err)
	}
	if _, err := f.NewSheet(cfg.CandidateSheet); err != nil {
		return fmt.Errorf("failed to create candidate sheet: %w", err)
	}

	if err := setRow(f, cfg.UnitSheet, 1, toCells(UnitColumns)); err != nil {
		return err
	}
	if err := setRow(f, cfg.CandidateSheet, 1, toCells(CandidateColumns)); err != nil {
		return err
	}

	candRow := 2
	for i, u := range units {
		if err := setRow(f, cfg.UnitSheet, i+2, unitCells(u)); err != nil {
			return err
		}
		for _, c := range u.Candidates {
			cells := []interface{}{u.UnitID, c.Name, c.Party, c.VoteCount, c.Rank}
			if err := setRow(f, cfg.CandidateSheet, candRow, cells); err != nil {
				return err
			}
			candRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func unitCells(u election.UnitRecord) []interface{} {
	return []interface{}{
		u.UnitID, u.Constituency, u.Province, u.ProvID,
		u.RegisteredVoters, u.TurnoutCount, u.TurnoutPct,
		u.ValidVotes, u.InvalidVotes, u.BlankVotes,
		u.TotalStations, u.CountedStations, u.PercentCounted, u.Paused,
		u.WinnerName, u.WinnerColor, u.WinnerVotes,
	}
}

func writeCSV(path string, units []election.UnitRecord) error {
	maxCands := 0
	for _, u := range units {
		if len(u.Candidates) > maxCands {
			maxCands = len(u.Candidates)
		}
	}

	header := append([]string{}, UnitColumns...)
	for n := 1; n <= maxCands; n++ {
		prefix := "candidate_" + strconv.Itoa(n) + "_"
		header = append(header, prefix+"name", prefix+"party", prefix+"votes")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, u := range units {
		record := make([]string, 0, len(header))
		for _, c := range unitCells(u) {
			record = append(record, fmt.Sprint(c))
		}
		for n := 0; n < maxCands; n++ {
			if n < len(u.Candidates) {
				c := u.Candidates[n]
				record = append(record, c.Name, c.Party, strconv.FormatInt(c.VoteCount, 10))
			} else {
				record = append(record, "", "", "")
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
