package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sgaunet/s3ingest/pkg/app"
	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dbinit"
	"github.com/sgaunet/s3ingest/pkg/dbsvc"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/memstore"
	"github.com/sgaunet/s3ingest/pkg/s3svc"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

// backend is implemented by both storage settings.
type backend interface {
	ingest.Store
	ledger.Store
	scanner.StateRepository
	app.Records
	Ping(ctx context.Context) error
}

// pipeline is every service of a process, wired for cfg.
type pipeline struct {
	cfg     config.Config
	log     *slog.Logger
	db      *sql.DB
	store   backend
	objects *s3svc.Service
	tracker *ledger.Tracker
	engine  *scanner.Engine
}

// newPipeline opens the storage and builds the services. The engine gets opts.
func newPipeline(ctx context.Context, cfg config.Config, log *slog.Logger, opts ...scanner.Option) (*pipeline, error) {
	p := &pipeline{cfg: cfg, log: log}

	switch cfg.Database.Storage {
	case config.StorageMemory:
		log.Warn("Using memory storage, scan state and ledgers are lost on exit")
		p.store = memstore.New()
	default:
		db, err := dbinit.InitializeDatabase(ctx, cfg.Database.URL, log)
		if err != nil {
			return nil, err
		}
		svc := dbsvc.NewService(db)
		svc.SetLogger(log)
		p.db = db
		p.store = svc
	}

	objects, err := s3svc.NewS3Svc(ctx, cfg.S3)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	objects.SetLogger(log)
	p.objects = objects

	p.tracker = ledger.NewTracker(p.store,
		ledger.WithRecheckAfter(cfg.Scan.DirectoryRecheckAfter),
		ledger.WithCacheTTL(cfg.Scan.LedgerCacheTTL),
	)
	p.tracker.SetLogger(log)

	processor := ingest.NewProcessor(p.store)
	processor.SetLogger(log)

	p.engine = scanner.NewEngine(cfg.Scan, objects, p.store, p.tracker, processor, opts...)
	p.engine.SetLogger(log)
	return p, nil
}

// Close releases the database pool.
func (p *pipeline) Close() {
	if p.db == nil {
		return
	}
	if err := p.db.Close(); err != nil {
		p.log.Error("Failed to close database", slog.String("error", err.Error()))
	}
}

// setup loads the configuration, the logger and a cancellable context.
func setup() (context.Context, context.CancelFunc, config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, nil, err
	}
	l := initTrace(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	SetupCloseHandler(ctx, cancel, l)
	return ctx, cancel, cfg, l, nil
}
