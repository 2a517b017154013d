package ports

import (
	"context"

	"voteaudit/domain/election"
)

// UnitSource supplies the unit collection for one analysis run.
type UnitSource interface {
	// Name identifies the source in logs and stored reports (file path, URL).
	Name() string
	LoadUnits(ctx context.Context) ([]election.UnitRecord, error)
}
