package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bikeshare/internal/core"
)

const dayCSV = `instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,6,0,2,0.344167,0.363625,0.805833,0.160446,331,654,985
2,2011-01-02,1,0,1,0,0,0,2,0.363478,0.353739,0.696087,0.248539,131,670,801
3,2011-01-03,1,0,1,0,1,1,1,0.196364,0.189405,0.437273,0.248309,120,1229,1349
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "day.csv", dayCSV)

	recs, err := New(path, "").LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	first := recs[0]
	assert.Equal(t, core.NewDate(2011, 1, 1), first.Date)
	assert.Equal(t, 1, first.Season)
	assert.Equal(t, 6, first.Weekday)
	assert.Equal(t, 2, first.Weathersit)
	assert.Equal(t, int64(331), first.Casual)
	assert.Equal(t, int64(654), first.Registered)
	assert.Equal(t, int64(985), first.Total)
}

func TestLoadCSVWithByteOrderMark(t *testing.T) {
	path := writeFile(t, "day.csv", "\ufeff"+dayCSV)

	recs, err := New(path, "").LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, core.NewDate(2011, 1, 1), recs[0].Date)
	assert.Equal(t, int64(985), recs[0].Total)
}

func TestLoadCSVMissingDateColumn(t *testing.T) {
	path := writeFile(t, "day.csv", "season,weekday,weathersit,casual,registered,cnt\n1,6,2,331,654,985\n")

	_, err := New(path, "").LoadRecords(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestLoadCSVBadCount(t *testing.T) {
	path := writeFile(t, "day.csv", "dteday,season,weekday,weathersit,casual,registered,cnt\n2011-01-01,1,6,2,abc,654,985\n")

	_, err := New(path, "").LoadRecords(context.Background())
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.ErrorIs(t, err, core.ErrInvalidCount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.csv"), "").LoadRecords(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "day.json", "{}")
	_, err := New(path, "").LoadRecords(context.Background())
	assert.ErrorIs(t, err, core.ErrLoad)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"dteday", "season", "weekday", "weathersit", "casual", "registered", "cnt"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2011-01-01", 1, 6, 2, 331, 654, 985}))
	// 40545 is the Excel serial for 2011-01-02.
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{40545, 1, 0, 2, 131, 670, 801}))

	path := filepath.Join(t.TempDir(), "day.xlsx")
	require.NoError(t, f.SaveAs(path))

	recs, err := New(path, "").LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, core.NewDate(2011, 1, 1), recs[0].Date)
	assert.Equal(t, core.NewDate(2011, 1, 2), recs[1].Date)
	assert.Equal(t, int64(801), recs[1].Total)
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "day.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := New(path, "Missing").LoadRecords(context.Background())
	assert.ErrorIs(t, err, core.ErrLoad)
}
