package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bikeshare/internal/core"
	"bikeshare/internal/log"
	"bikeshare/internal/source/file"
	"bikeshare/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the SQLite snapshot with the contents of a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		sheet, _ := cmd.Flags().GetString("sheet")
		db, _ := cmd.Flags().GetString("db")
		return runImport(cmd, path, sheet, db)
	},
}

func init() {
	importCmd.Flags().String("file", envOr("DATASET_PATH", "./data/day.csv"), "dataset file (.csv or .xlsx)")
	importCmd.Flags().String("sheet", "", "worksheet name for .xlsx files (default first sheet)")
	importCmd.Flags().String("db", envOr("SQLITE_DB_PATH", "./data/bikeshare.db"), "SQLite database path")
}

func runImport(cmd *cobra.Command, path, sheet, dbPath string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentImport)

	records, err := file.New(path, sheet).LoadRecords(ctx)
	if err != nil {
		return err
	}
	if err := core.DefaultLabels().Validate(records); err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.ReplaceRecordsFrom(ctx, path, records); err != nil {
		return err
	}
	imp, err := repo.LastImport(ctx)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Dataset imported",
		log.FieldSource, path, "db_path", dbPath, log.FieldRecords, imp.RowCount, log.FieldVersion, imp.Version)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d days from %s into %s (version %s)\n",
		imp.RowCount, path, dbPath, imp.Version)
	return nil
}
