package core

// DailyTotal is the sum of the three counters for one calendar day.
type DailyTotal struct {
	Date       Date
	Casual     int64
	Registered int64
	Total      int64
}

// CategoryTotal is the summed total for one category code.
type CategoryTotal struct {
	Code  int
	Total int64
}

// Summary holds the scalar metrics shown above the charts.
type Summary struct {
	Days              int
	TotalRentals      int64
	CasualRentals     int64
	RegisteredRentals int64
}
