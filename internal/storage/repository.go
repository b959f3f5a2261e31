package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bikeshare/internal/core"
	"bikeshare/internal/source"

	_ "modernc.org/sqlite"
)

// Import describes one snapshot written by ReplaceRecordsFrom.
type Import struct {
	ID         int64
	Origin     string
	RowCount   int
	Version    string
	ImportedAt time.Time
}

// ErrNoImport is returned by LastImport on an empty database.
var ErrNoImport = errors.New("no dataset imported")

type SQLiteRepository struct {
	db *sql.DB
}

var _ source.RecordSource = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadRecords implements source.RecordSource. Rows come back in date order.
func (r *SQLiteRepository) LoadRecords(ctx context.Context) ([]core.DailyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT dteday, season, weekday, weathersit, casual, registered, cnt
		FROM daily_records
		ORDER BY dteday`)
	if err != nil {
		return nil, &core.LoadError{Path: "sqlite", Op: "query daily_records", Err: err}
	}
	defer rows.Close()

	var out []core.DailyRecord
	for rows.Next() {
		var (
			day string
			rec core.DailyRecord
		)
		if err := rows.Scan(&day, &rec.Season, &rec.Weekday, &rec.Weathersit, &rec.Casual, &rec.Registered, &rec.Total); err != nil {
			return nil, &core.LoadError{Path: "sqlite", Op: "scan daily_records", Err: err}
		}
		d, err := core.ParseDate(day)
		if err != nil {
			return nil, &core.LoadError{Path: "sqlite", Op: "scan daily_records", Err: err}
		}
		rec.Date = d
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.LoadError{Path: "sqlite", Op: "iterate daily_records", Err: err}
	}
	return out, nil
}

// ReplaceRecords swaps the snapshot without naming an origin.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, records []core.DailyRecord) error {
	return r.ReplaceRecordsFrom(ctx, "unknown", records)
}

// ReplaceRecordsFrom swaps the whole snapshot in one transaction and logs an
// import row naming origin. Readers never observe a partial snapshot.
func (r *SQLiteRepository) ReplaceRecordsFrom(ctx context.Context, origin string, records []core.DailyRecord) error {
	ds, err := core.NewDataset(records)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_records`); err != nil {
		return fmt.Errorf("clear daily_records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_records (dteday, season, weekday, weathersit, casual, registered, cnt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range ds.Records() {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %s: %w", rec.Date, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Date.String(), rec.Season, rec.Weekday, rec.Weathersit, rec.Casual, rec.Registered, rec.Total); err != nil {
			return fmt.Errorf("insert %s: %w", rec.Date, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dataset_imports (origin, row_count, version, imported_at)
		VALUES (?, ?, ?, ?)`,
		origin, ds.Len(), ds.Version(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Dataset snapshot replaced",
		"origin", origin,
		"rows", ds.Len(),
		"version", ds.Version())
	return nil
}

// LastImport returns the most recent import row.
func (r *SQLiteRepository) LastImport(ctx context.Context) (Import, error) {
	var (
		imp Import
		at  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, origin, row_count, version, imported_at
		FROM dataset_imports
		ORDER BY id DESC
		LIMIT 1`).Scan(&imp.ID, &imp.Origin, &imp.RowCount, &imp.Version, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoImport
	}
	if err != nil {
		return Import{}, fmt.Errorf("query last import: %w", err)
	}
	imp.ImportedAt, err = time.Parse(time.RFC3339, at)
	if err != nil {
		return Import{}, fmt.Errorf("parse imported_at: %w", err)
	}
	return imp, nil
}
