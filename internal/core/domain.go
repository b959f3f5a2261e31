package core

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the canonical calendar date format used in URLs and exports.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	// DailyRecord is one day of rental counts and its categorical attributes.
	DailyRecord struct {
		Date       Date
		Season     int   `validate:"gte=0"`
		Weekday    int   `validate:"gte=0"`
		Weathersit int   `validate:"gte=0"`
		Casual     int64 `validate:"gte=0"`
		Registered int64 `validate:"gte=0"`
		Total      int64 `validate:"gte=0"`
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is a later day than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// Validate checks the struct tags and that the record carries a date.
func (r DailyRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("record has no date")
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("record %s: %w", r.Date, err)
	}
	return nil
}
