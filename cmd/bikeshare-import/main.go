// Command bikeshare-import loads a dataset file into the SQLite snapshot
// read by the sqlite backend, and prints range summaries from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bikeshare/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:           "bikeshare-import",
	Short:         "Import and inspect bike sharing datasets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(importCmd, summaryCmd)
}

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
