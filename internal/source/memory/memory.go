package memory

import (
	"context"
	"sync"

	"bikeshare/internal/core"
	"bikeshare/internal/source"
)

// Store keeps records in memory. It backs tests and demo runs.
type Store struct {
	mu    sync.Mutex
	items []core.DailyRecord
}

var _ source.RecordSource = (*Store)(nil)

func New(records ...core.DailyRecord) *Store {
	return &Store{items: append([]core.DailyRecord(nil), records...)}
}

// LoadRecords returns a copy of the stored records.
func (s *Store) LoadRecords(ctx context.Context) ([]core.DailyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.DailyRecord(nil), s.items...), nil
}

// ReplaceRecords swaps the stored records after validating each one.
func (s *Store) ReplaceRecords(_ context.Context, records []core.DailyRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.DailyRecord(nil), records...)
	return nil
}
