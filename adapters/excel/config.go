package excel

// ExcelConfig holds configuration for a workbook or CSV unit source
type ExcelConfig struct {
	FilePath       string `json:"file_path"`
	UnitSheet      string `json:"unit_sheet"`
	CandidateSheet string `json:"candidate_sheet"`
	// CandidatesPath is an optional CSV of candidate rows used with a CSV unit file.
	CandidatesPath string `json:"candidates_path"`
}

// DefaultExcelConfig returns the sheet names written by WriteUnits
func DefaultExcelConfig(path string) ExcelConfig {
	return ExcelConfig{
		FilePath:       path,
		UnitSheet:      "Units",
		CandidateSheet: "Candidates",
	}
}
