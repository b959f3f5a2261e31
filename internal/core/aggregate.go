package core

import "sort"

// DailyTotals groups records by calendar day and sums casual, registered and
// total. Output is in date order.
func DailyTotals(records []DailyRecord) []DailyTotal {
	if len(records) == 0 {
		return []DailyTotal{}
	}
	acc := make(map[int64]*DailyTotal, len(records))
	for _, r := range records {
		day := DateOf(r.Date.Time)
		k := day.Unix()
		t, ok := acc[k]
		if !ok {
			t = &DailyTotal{Date: day}
			acc[k] = t
		}
		t.Casual += r.Casual
		t.Registered += r.Registered
		t.Total += r.Total
	}
	out := make([]DailyTotal, 0, len(acc))
	for _, t := range acc {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// BySeason sums total per season code.
func BySeason(records []DailyRecord) []CategoryTotal {
	return groupTotal(records, func(r DailyRecord) int { return r.Season })
}

// ByWeekday sums total per weekday code.
func ByWeekday(records []DailyRecord) []CategoryTotal {
	return groupTotal(records, func(r DailyRecord) int { return r.Weekday })
}

// ByWeathersit sums total per weather situation code.
func ByWeathersit(records []DailyRecord) []CategoryTotal {
	return groupTotal(records, func(r DailyRecord) int { return r.Weathersit })
}

// groupTotal is a single pass over records into a code->sum map. Rows come
// back ordered by code.
func groupTotal(records []DailyRecord, key func(DailyRecord) int) []CategoryTotal {
	if len(records) == 0 {
		return []CategoryTotal{}
	}
	sums := map[int]int64{}
	for _, r := range records {
		sums[key(r)] += r.Total
	}
	out := make([]CategoryTotal, 0, len(sums))
	for code, total := range sums {
		out = append(out, CategoryTotal{Code: code, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// RankByTotal returns a copy sorted by total descending, ties by code.
func RankByTotal(rows []CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Summarize computes the three headline metrics over records.
func Summarize(records []DailyRecord) Summary {
	s := Summary{Days: len(records)}
	for _, r := range records {
		s.TotalRentals += r.Total
		s.CasualRentals += r.Casual
		s.RegisteredRentals += r.Registered
	}
	return s
}
