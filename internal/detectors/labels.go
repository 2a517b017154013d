package detectors

import "fmt"

// Flag labels written into per-unit detail rows.
const (
	LabelNormal      = "normal"
	LabelTurnoutLow  = "abnormally low turnout"
	LabelTurnoutHigh = "abnormally high turnout"
	LabelInvalidHigh = "abnormally high invalid ballots"
	LabelBlankHigh   = "abnormally high blank votes"
	LabelWastedHigh  = "high wasted votes"
)

// DominanceLabel names an extreme winner share for the given threshold.
func DominanceLabel(threshold float64) string {
	return fmt.Sprintf("landslide win (>%g%%)", threshold)
}
