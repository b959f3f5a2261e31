// Package file loads the dataset from a local CSV or XLSX file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bikeshare/internal/core"
	"bikeshare/internal/source"
)

// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Loader reads a dataset file on every LoadRecords call.
type Loader struct {
	Path string
	// Sheet selects the worksheet of an .xlsx file. Empty means the first one.
	Sheet string
}

var _ source.RecordSource = (*Loader)(nil)

func New(path, sheet string) *Loader {
	return &Loader{Path: path, Sheet: sheet}
}

// LoadRecords parses the file into records in file order.
func (l *Loader) LoadRecords(ctx context.Context) ([]core.DailyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(l.Path); err != nil {
		return nil, &core.LoadError{Path: l.Path, Op: "open", Err: err}
	}
	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".csv":
		return l.readCSV()
	case ".xlsx":
		return l.readXLSX()
	default:
		return nil, &core.LoadError{Path: l.Path, Op: "open", Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(l.Path))}
	}
}

func (l *Loader) readCSV() ([]core.DailyRecord, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, &core.LoadError{Path: l.Path, Op: "open", Err: err}
	}
	defer f.Close()

	// Cells stay as text so every backend goes through the same cell parser.
	types := make(map[string]series.Type, len(core.RequiredColumns))
	for _, c := range core.RequiredColumns {
		types[c] = series.String
	}
	// "CSV UTF-8" exports from Excel start with a byte order mark.
	r := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return nil, &core.LoadError{Path: l.Path, Op: "read csv", Err: df.Err}
	}
	return core.ParseTable(l.Path, df.Records())
}

func (l *Loader) readXLSX() ([]core.DailyRecord, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, &core.LoadError{Path: l.Path, Op: "open", Err: err}
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &core.LoadError{Path: l.Path, Op: "read sheet " + sheet, Err: err}
	}
	normalizeSerialDates(rows)
	return core.ParseTable(l.Path, rows)
}

// normalizeSerialDates rewrites date cells stored as Excel serial numbers
// (unformatted cells) into DateLayout text.
func normalizeSerialDates(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), core.ColDate) {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		row[col] = t.Format(core.DateLayout)
	}
}
