// Package app exposes the ingestion pipeline as a JSON API.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/health"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

const readHeaderTimeout = 10 * time.Second

// Scanner is the scan engine as seen by the API.
type Scanner interface {
	Start(ctx context.Context) (scanner.StartResult, error)
	ProcessNextBatch(ctx context.Context) (dto.Snapshot, error)
	Progress(ctx context.Context) (dto.Snapshot, bool, error)
	Cancel(ctx context.Context) (dto.Snapshot, error)
	Pause(ctx context.Context) (dto.Snapshot, error)
	Resume(ctx context.Context) (dto.Snapshot, error)
	RunFullScan(ctx context.Context) (dto.FullScanResult, error)
	DeadLetters(ctx context.Context, scanID string, limit int) ([]dto.DeadLetter, error)
}

// Records lists and edits stored bug reports.
type Records interface {
	ListBugReports(ctx context.Context, filter dto.BugReportFilter) (dto.BugReportPage, error)
	UpdateBugReport(ctx context.Context, id int64, upd dto.BugReportUpdate) (dto.BugReport, error)
}

// Ledger is the operator side of the processed-set tracker.
type Ledger interface {
	Clear(ctx context.Context, scope ledger.Scope) (ledger.ClearResult, error)
}

// ObjectStore tests the connection and fetches single objects for inspection.
type ObjectStore interface {
	TestConnection(ctx context.Context) (string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// HealthReporter returns the last health checks.
type HealthReporter interface {
	GetHealthInfo() health.Info
}

// Deps are the services behind the API.
type Deps struct {
	Scanner Scanner
	Records Records
	Ledger  Ledger
	Objects ObjectStore
	Health  HealthReporter
}

// App is the HTTP server of s3ingest.
type App struct {
	cfg    config.HTTPConfig
	deps   Deps
	router *mux.Router
	srv    *http.Server
	log    *slog.Logger
}

// NewApp builds the router. The server is started by ListenAndServe.
func NewApp(cfg config.HTTPConfig, deps Deps) *App {
	a := &App{
		cfg:    cfg,
		deps:   deps,
		router: mux.NewRouter().StrictSlash(true),
		log:    slog.New(slog.DiscardHandler),
	}
	a.initRouter()
	a.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return a
}

// SetLogger sets the logger
func (a *App) SetLogger(log *slog.Logger) {
	a.log = log
}

// Router returns the HTTP handler of the API.
func (a *App) Router() http.Handler {
	return a.router
}

// ListenAndServe blocks until the server is shut down.
func (a *App) ListenAndServe() error {
	a.log.Info("listen", slog.String("addr", a.srv.Addr))
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for the running ones.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
