package core

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Dataset is the sorted, read-only set of daily records loaded at startup.
// A Dataset is never modified after NewDataset returns.
type Dataset struct {
	records []DailyRecord
	version string
}

// NewDataset sorts a copy of records by date and rejects duplicate days.
func NewDataset(records []DailyRecord) (*Dataset, error) {
	sorted := make([]DailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, &LoadError{Op: "index", Err: fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date)}
		}
	}
	return &Dataset{records: sorted, version: fingerprint(sorted)}, nil
}

// Len returns the number of days in the dataset.
func (d *Dataset) Len() int { return len(d.records) }

// Version identifies the dataset contents; equal data yields equal versions.
func (d *Dataset) Version() string { return d.version }

// MinDate returns the first day, or the zero Date for an empty dataset.
func (d *Dataset) MinDate() Date {
	if len(d.records) == 0 {
		return Date{}
	}
	return d.records[0].Date
}

// MaxDate returns the last day, or the zero Date for an empty dataset.
func (d *Dataset) MaxDate() Date {
	if len(d.records) == 0 {
		return Date{}
	}
	return d.records[len(d.records)-1].Date
}

// SingleDay reports whether the dataset spans exactly one calendar day.
func (d *Dataset) SingleDay() bool {
	return len(d.records) > 0 && d.MinDate().Equal(d.MaxDate())
}

// Records returns a copy of all records in date order.
func (d *Dataset) Records() []DailyRecord {
	out := make([]DailyRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Filter returns the records whose date lies in [start, end], both bounds
// inclusive. An inverted range yields an empty slice.
func (d *Dataset) Filter(start, end Date) []DailyRecord {
	if start.After(end) {
		return []DailyRecord{}
	}
	lo := sort.Search(len(d.records), func(i int) bool {
		return !d.records[i].Date.Before(start)
	})
	hi := sort.Search(len(d.records), func(i int) bool {
		return d.records[i].Date.After(end)
	})
	out := make([]DailyRecord, hi-lo)
	copy(out, d.records[lo:hi])
	return out
}

// Clamp narrows [start, end] to the dataset span. Zero dates take the
// corresponding bound.
func (d *Dataset) Clamp(start, end Date) (Date, Date) {
	if start.IsZero() || start.Before(d.MinDate()) {
		start = d.MinDate()
	}
	if end.IsZero() || end.After(d.MaxDate()) {
		end = d.MaxDate()
	}
	return start, end
}

func fingerprint(records []DailyRecord) string {
	h := xxhash.New()
	var buf [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	for _, r := range records {
		put(r.Date.Unix())
		put(int64(r.Season))
		put(int64(r.Weekday))
		put(int64(r.Weathersit))
		put(r.Casual)
		put(r.Registered)
		put(r.Total)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
