package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOfTruncates(t *testing.T) {
	ts := time.Date(2011, 3, 4, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2011, 3, 4), DateOf(ts))
	assert.Equal(t, "2011-03-04", DateOf(ts).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2012-12-31")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2012, 12, 31), d)

	_, err = ParseDate("31/12/2012")
	assert.Error(t, err)
}

func TestDailyRecordValidate(t *testing.T) {
	good := DailyRecord{Date: NewDate(2011, 1, 1), Season: 1, Weekday: 6, Weathersit: 2, Casual: 331, Registered: 654, Total: 985}
	require.NoError(t, good.Validate())

	bads := []DailyRecord{
		{Season: 1, Total: 1},                              // zero date
		{Date: NewDate(2011, 1, 1), Casual: -1},            // negative casual
		{Date: NewDate(2011, 1, 1), Registered: -5},        // negative registered
		{Date: NewDate(2011, 1, 1), Total: -1},             // negative total
		{Date: NewDate(2011, 1, 1), Season: -1, Total: 10}, // negative code
	}
	for i, r := range bads {
		assert.Errorf(t, r.Validate(), "case %d expected error", i)
	}
}
