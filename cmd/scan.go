package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

var (
	deadLetterScanID string
	deadLetterLimit  int
)

func init() {
	deadLettersCmd.Flags().StringVar(&deadLetterScanID, "scan-id", "", "Only list the failures of this scan")
	deadLettersCmd.Flags().IntVar(&deadLetterLimit, "limit", 0, "Maximum number of entries")

	scanCmd.AddCommand(
		scanStartCmd, scanBatchCmd, scanRunCmd, scanProgressCmd,
		scanCancelCmd, scanPauseCmd, scanResumeCmd, scanFullCmd, deadLettersCmd,
	)
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Drive the batch scan",
}

// withPipeline runs fn with a wired pipeline and prints its result.
func withPipeline(fn func(ctx context.Context, p *pipeline) (any, error)) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx, cancel, cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer cancel()

		p, err := newPipeline(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer p.Close()

		out, err := fn(ctx, p)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		return printJSON(out)
	}
}

var scanStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Discover the objects to ingest and create a new scan",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.Start(ctx)
	}),
}

var scanBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process the next batch of the current scan",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.ProcessNextBatch(ctx)
	}),
}

var scanRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Process batches until the scan completes, fails or is stopped",
	Long: `Process batches until the scan leaves the runnable states.
A scan is started first when none is runnable.`,
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		snap, ok, err := p.engine.Progress(ctx)
		if err != nil {
			return nil, err
		}
		if !ok || !snap.Status.Runnable() {
			res, err := p.engine.Start(ctx)
			if err != nil {
				return nil, err
			}
			p.log.Info("Scan started",
				slog.String("scan_id", res.Progress.ScanID),
				slog.Int("files", res.TotalFiles),
				slog.Int("batches", res.TotalBatches))
		}
		return p.engine.Drain(ctx, func(s dto.Snapshot) {
			p.log.Info("Batch done",
				slog.Int("batch", s.CurrentBatch),
				slog.Int("of", s.TotalBatches),
				slog.Float64("percentage", s.Percentage),
				slog.Int("errors", s.ErrorFiles))
		})
	}),
}

var scanProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the progress of the current scan",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		snap, ok, err := p.engine.Progress(ctx)
		if err != nil || !ok {
			if err == nil {
				p.log.Info("No scan was started")
			}
			return nil, err
		}
		return snap, nil
	}),
}

var scanCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the current scan",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.Cancel(ctx)
	}),
}

// Pause only lasts as long as the process holding it; the CLI is mostly useful against serve.
var scanPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the current scan in this process",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.Pause(ctx)
	}),
}

var scanResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused or failed scan",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.Resume(ctx)
	}),
}

var scanFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Ingest every new object of the root listing in one pass",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.RunFullScan(ctx)
	}),
}

var deadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "List the items that failed",
	RunE: withPipeline(func(ctx context.Context, p *pipeline) (any, error) {
		return p.engine.DeadLetters(ctx, deadLetterScanID, deadLetterLimit)
	}),
}
