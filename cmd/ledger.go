package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/ledger"
)

var (
	clearFiles       bool
	clearDirectories bool
)

func init() {
	ledgerClearCmd.Flags().BoolVar(&clearFiles, "files", false, "Clear the processed files ledger")
	ledgerClearCmd.Flags().BoolVar(&clearDirectories, "directories", false, "Clear the processed directories ledger")
	ledgerCmd.AddCommand(ledgerClearCmd)
	rootCmd.AddCommand(ledgerCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the processed files and directories ledgers",
}

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget processed files and/or directories so the next scan ingests them again",
	Long:  "Without --files or --directories both ledgers are cleared.",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.tracker.Clear(ctx, clearScope(clearFiles, clearDirectories))
	}),
}

func clearScope(files, dirs bool) ledger.Scope {
	var scope ledger.Scope
	if files {
		scope |= ledger.ScopeFiles
	}
	if dirs {
		scope |= ledger.ScopeDirectories
	}
	if scope == 0 {
		return ledger.ScopeAll
	}
	return scope
}
