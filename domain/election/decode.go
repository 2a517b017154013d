package election

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"voteaudit/domain/core"
)

// DecodeUnits decodes each element of a JSON unit array with decode. A
// malformed element fails the whole batch with an error naming its unit_id,
// or its position when the id itself is unreadable.
func DecodeUnits(items []json.RawMessage, decode func(json.RawMessage) (UnitRecord, error)) ([]UnitRecord, error) {
	units := make([]UnitRecord, 0, len(items))
	for i, item := range items {
		u, err := decode(item)
		if err != nil {
			return nil, core.NewUnitError(unitLabel(item, i), decodeReason(err))
		}
		units = append(units, u)
	}
	return units, nil
}

// DecodeUnit decodes one element in the native unit record layout.
func DecodeUnit(item json.RawMessage) (UnitRecord, error) {
	var u UnitRecord
	err := json.Unmarshal(item, &u)
	return u, err
}

func unitLabel(item json.RawMessage, i int) string {
	if id := gjson.GetBytes(item, "unit_id"); id.Exists() && id.String() != "" {
		return id.String()
	}
	return fmt.Sprintf("#%d", i)
}

func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: cannot use %s as %s", typeErr.Field, typeErr.Value, typeErr.Type)
	}
	return err.Error()
}
