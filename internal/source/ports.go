package source

import (
	"context"

	"bikeshare/internal/core"
)

// RecordSource loads the full set of daily records from a backend.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]core.DailyRecord, error)
}
