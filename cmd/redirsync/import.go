package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"redirsync/pkg/config"
	"redirsync/pkg/transfer"
	"redirsync/pkg/ui"
)

var (
	importBatchSize   int
	importConcurrency int
	importReset       bool
)

// importCmd uploads a CSV of redirect records to the remote
var importCmd = &cobra.Command{
	Use:   "import <csvPath>",
	Short: "Import redirects from a CSV file into the remote",
	Long: `Import the redirect records in the given CSV file. Records are sent in
fixed-size batches in a canonical order, so an interrupted import can
resume at the exact batch it stopped at.

With --reset, redirects that exist remotely but are absent from the
file are deleted first, making the remote an exact mirror of the file.`,
	Example: `  # Plain import, 10 records per request
  redirsync import redirects.csv

  # Larger batches, two requests in flight
  redirsync import redirects.csv --batchSize 50 --concurrency 2

  # Mirror the file exactly, removing stale remote redirects first
  redirsync import redirects.csv --reset`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		ui.PrintInfo("import source", path)

		flags := make(map[string]interface{})
		if cmd.Flags().Changed("batchSize") {
			flags["batch-size"] = importBatchSize
		}
		if cmd.Flags().Changed("concurrency") {
			flags["concurrency"] = importConcurrency
		}

		runOperation(func(ctx context.Context, cfg *config.Config, engine *transfer.Engine) error {
			var keys []string
			var err error
			if importReset {
				keys, err = engine.ImportWithReset(ctx, path)
			} else {
				keys, err = engine.Import(ctx, path)
			}
			if err != nil {
				return err
			}
			ui.PrintSuccess(fmt.Sprintf("imported %d redirects from %s", len(keys), path))
			return nil
		}, flags)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVarP(&importBatchSize, "batchSize", "b", 10, "records per remote request")
	importCmd.Flags().IntVarP(&importConcurrency, "concurrency", "c", 1, "batch requests in flight at once")
	importCmd.Flags().BoolVarP(&importReset, "reset", "r", false, "delete remote redirects absent from the file before importing")
}
