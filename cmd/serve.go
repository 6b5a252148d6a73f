package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/app"
	"github.com/sgaunet/s3ingest/pkg/health"
	"github.com/sgaunet/s3ingest/pkg/scanner"
	"github.com/sgaunet/s3ingest/pkg/scheduler"
)

const shutdownTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API and the background batch scheduler",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel, cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer cancel()

		sched := scheduler.NewScheduler(cfg.Scan)
		sched.SetLogger(l)
		p, err := newPipeline(ctx, cfg, l, scanner.WithTrigger(sched))
		if err != nil {
			return err
		}
		defer p.Close()
		sched.Bind(p.engine)

		monitor := health.NewMonitor(l)
		monitor.Register("database", p.store.Ping)
		monitor.Register("object_store", func(ctx context.Context) error {
			_, err := p.objects.TestConnection(ctx)
			return err
		})
		monitor.Start(ctx)
		defer monitor.Stop()

		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		a := app.NewApp(cfg.HTTP, app.Deps{
			Scanner: p.engine,
			Records: p.store,
			Ledger:  p.tracker,
			Objects: p.objects,
			Health:  monitor,
		})
		a.SetLogger(l)

		errCh := make(chan error, 1)
		go func() { errCh <- a.ListenAndServe() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		l.Info("stop the server")
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := a.Shutdown(shutdownCtx); err != nil {
			l.Error("Shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	},
}
