package core

import (
	"sort"
	"strconv"
)

// Category names used in label tables and error reports.
const (
	CategorySeason     = "season"
	CategoryWeekday    = "weekday"
	CategoryWeathersit = "weathersit"
)

// LabelTable maps the numeric codes of one category to display names.
type LabelTable struct {
	Category string
	names    map[int]string
}

// NewLabelTable copies names into a new table.
func NewLabelTable(category string, names map[int]string) LabelTable {
	m := make(map[int]string, len(names))
	for k, v := range names {
		m[k] = v
	}
	return LabelTable{Category: category, names: m}
}

// Lookup returns the label for code and whether it exists.
func (t LabelTable) Lookup(code int) (string, bool) {
	name, ok := t.names[code]
	return name, ok
}

// Label returns the display name, or the raw code when the table has none.
func (t LabelTable) Label(code int) string {
	if name, ok := t.names[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// Codes returns the mapped codes in ascending order.
func (t LabelTable) Codes() []int {
	codes := make([]int, 0, len(t.names))
	for c := range t.names {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Labels groups the three category tables shown on the dashboard.
type Labels struct {
	Season     LabelTable
	Weekday    LabelTable
	Weathersit LabelTable
}

// DefaultLabels returns the tables for the UCI bike sharing day dataset.
// Weekday code 4 is Thursday.
func DefaultLabels() Labels {
	return Labels{
		Season: NewLabelTable(CategorySeason, map[int]string{
			1: "Spring",
			2: "Summer",
			3: "Fall",
			4: "Winter",
		}),
		Weekday: NewLabelTable(CategoryWeekday, map[int]string{
			0: "Sunday",
			1: "Monday",
			2: "Tuesday",
			3: "Wednesday",
			4: "Thursday",
			5: "Friday",
			6: "Saturday",
		}),
		Weathersit: NewLabelTable(CategoryWeathersit, map[int]string{
			1: "Clear",
			2: "Mist",
			3: "Light Snow",
			4: "Heavy Rain",
		}),
	}
}

// Validate returns a *LabelError when any record carries a code that one of
// the tables cannot name.
func (l Labels) Validate(records []DailyRecord) error {
	type key struct {
		category string
		code     int
	}
	missing := map[key]int{}
	for _, r := range records {
		if _, ok := l.Season.Lookup(r.Season); !ok {
			missing[key{CategorySeason, r.Season}]++
		}
		if _, ok := l.Weekday.Lookup(r.Weekday); !ok {
			missing[key{CategoryWeekday, r.Weekday}]++
		}
		if _, ok := l.Weathersit.Lookup(r.Weathersit); !ok {
			missing[key{CategoryWeathersit, r.Weathersit}]++
		}
	}
	if len(missing) == 0 {
		return nil
	}
	out := make([]UnmappedCode, 0, len(missing))
	for k, days := range missing {
		out = append(out, UnmappedCode{Category: k.category, Code: k.code, Days: days})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Code < out[j].Code
	})
	return &LabelError{Unmapped: out}
}
