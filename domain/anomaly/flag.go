package anomaly

import (
	"encoding/json"
	"fmt"

	"voteaudit/domain/election"
)

// Severity grades a flag. Only two levels are emitted.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFor maps an absolute-threshold breach to a severity.
func SeverityFor(high bool) Severity {
	if high {
		return SeverityHigh
	}
	return SeverityMedium
}

// Category discriminates flag payloads.
type Category string

const (
	CategoryTurnout   Category = "turnout"
	CategoryInvalid   Category = "invalid"
	CategoryBlank     Category = "blank"
	CategoryWasted    Category = "wasted"
	CategoryDominance Category = "dominance"
)

// FlagPayload carries the category-specific part of a flag.
type FlagPayload interface {
	Category() Category
}

// TurnoutPayload is attached to turnout outlier flags.
type TurnoutPayload struct {
	TurnoutPct float64 `json:"turnout_pct"`
	ZScore     float64 `json:"z_score"`
	Registered int64   `json:"registered"`
	Came       int64   `json:"came"`
}

// InvalidPayload is attached to invalid-ballot rate flags.
type InvalidPayload struct {
	InvalidRate  float64 `json:"invalid_rate"`
	InvalidVotes int64   `json:"invalid_votes"`
	ZScore       float64 `json:"z_score"`
}

// BlankPayload is attached to blank-ballot rate flags.
type BlankPayload struct {
	BlankRate  float64 `json:"blank_rate"`
	BlankVotes int64   `json:"blank_votes"`
	ZScore     float64 `json:"z_score"`
}

// WastedPayload is attached to wasted-ballot (invalid + blank) rate flags.
type WastedPayload struct {
	WastedRate   float64 `json:"wasted_rate"`
	WastedVotes  int64   `json:"wasted_votes"`
	InvalidVotes int64   `json:"invalid_votes"`
	BlankVotes   int64   `json:"blank_votes"`
}

// DominancePayload is attached to winner-dominance flags.
type DominancePayload struct {
	Winner    string  `json:"winner"`
	WinnerPct float64 `json:"winner_pct"`
	Margin    float64 `json:"margin"`
	RunnerUp  string  `json:"runner_up"`
}

func (TurnoutPayload) Category() Category   { return CategoryTurnout }
func (InvalidPayload) Category() Category   { return CategoryInvalid }
func (BlankPayload) Category() Category     { return CategoryBlank }
func (WastedPayload) Category() Category    { return CategoryWasted }
func (DominancePayload) Category() Category { return CategoryDominance }

// UnitRef identifies the unit a finding belongs to.
type UnitRef struct {
	UnitID       string `json:"unit_id"`
	Constituency string `json:"constituency"`
	Province     string `json:"province"`
}

// RefFor extracts the identifying fields of a unit.
func RefFor(u election.UnitRecord) UnitRef {
	return UnitRef{UnitID: u.UnitID, Constituency: u.Constituency, Province: u.Province}
}

// Flag is one detector finding against one unit.
type Flag struct {
	UnitRef
	Category Category    `json:"category"`
	Label    string      `json:"flag"`
	Value    float64     `json:"value"`
	Detail   string      `json:"detail"`
	Severity Severity    `json:"severity"`
	Payload  FlagPayload `json:"payload"`
}

// NewFlag builds a flag whose category is taken from its payload.
func NewFlag(ref UnitRef, payload FlagPayload, label string, value float64, detail string, severity Severity) Flag {
	return Flag{
		UnitRef:  ref,
		Category: payload.Category(),
		Label:    label,
		Value:    value,
		Detail:   detail,
		Severity: severity,
		Payload:  payload,
	}
}

// UnmarshalJSON decodes the payload according to the category tag.
func (f *Flag) UnmarshalJSON(data []byte) error {
	type flagAlias Flag
	var raw struct {
		flagAlias
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Flag(raw.flagAlias)

	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		f.Payload = nil
		return nil
	}

	var payload FlagPayload
	switch f.Category {
	case CategoryTurnout:
		var p TurnoutPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryInvalid:
		var p InvalidPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryBlank:
		var p BlankPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryWasted:
		var p WastedPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	case CategoryDominance:
		var p DominancePayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return err
		}
		payload = p
	default:
		return fmt.Errorf("unknown flag category %q", f.Category)
	}
	f.Payload = payload
	return nil
}
