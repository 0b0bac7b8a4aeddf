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
	deleteBatchSize   int
	deleteConcurrency int
)

// deleteCmd removes the redirects listed in a CSV from the remote
var deleteCmd = &cobra.Command{
	Use:   "delete <csvPath>",
	Short: "Delete the redirects listed in a CSV file from the remote",
	Long: `Delete every redirect whose source appears in the given CSV file. The
file only needs a "from" column; other columns are ignored.`,
	Example: `  # Remove the redirects listed in stale.csv
  redirsync delete stale.csv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		ui.PrintInfo("delete source", path)

		flags := make(map[string]interface{})
		if cmd.Flags().Changed("batchSize") {
			flags["batch-size"] = deleteBatchSize
		}
		if cmd.Flags().Changed("concurrency") {
			flags["concurrency"] = deleteConcurrency
		}

		runOperation(func(ctx context.Context, cfg *config.Config, engine *transfer.Engine) error {
			keys, err := engine.Delete(ctx, path)
			if err != nil {
				return err
			}
			ui.PrintSuccess(fmt.Sprintf("deleted %d redirects listed in %s", len(keys), path))
			return nil
		}, flags)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().IntVarP(&deleteBatchSize, "batchSize", "b", 10, "keys per remote request")
	deleteCmd.Flags().IntVarP(&deleteConcurrency, "concurrency", "c", 1, "batch requests in flight at once")
}
