// Package scanner drives the ingestion of a bucket in resumable, time-boxed batches.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
)

// ObjectStore is the read-only view of the bucket the engine needs.
type ObjectStore interface {
	ListObjects(ctx context.Context, prefix string, maxKeys int) ([]dto.S3Object, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Processor stores one fetched item.
type Processor interface {
	Process(ctx context.Context, item dto.ClassifiedItem, payload []byte) error
}

// Ledger tells which files and directories were already ingested.
type Ledger interface {
	IsFileProcessed(ctx context.Context, key string) (bool, error)
	MarkFileProcessed(ctx context.Context, key, hash string) error
	IsDirectoryProcessed(ctx context.Context, dir string) (bool, error)
	MarkDirectoryProcessed(ctx context.Context, dir string) error
}

// Trigger schedules background batches while a scan is runnable.
type Trigger interface {
	Arm() error
	Disarm()
}

type noopTrigger struct{}

func (noopTrigger) Arm() error { return nil }
func (noopTrigger) Disarm()    {}

// StartResult is returned by Start.
type StartResult struct {
	TotalFiles   int          `json:"total_files"`
	TotalBatches int          `json:"total_batches"`
	Progress     dto.Snapshot `json:"progress"`
}

// Engine is the batch scan state machine. Persisted state lives in the
// StateRepository; the pause flag is local to the process.
type Engine struct {
	objects    ObjectStore
	repo       StateRepository
	ledger     Ledger
	processor  Processor
	classifier *classify.Classifier
	trigger    Trigger
	cfg        config.ScanConfig
	now        func() time.Time
	paused     atomic.Bool
	batches    singleflight.Group
	log        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrigger sets the background trigger armed by Start and disarmed on completion.
func WithTrigger(t Trigger) Option {
	return func(e *Engine) {
		e.trigger = t
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.classifier = classify.NewWithClock(now)
	}
}

// NewEngine creates a scan engine. Zero values in cfg are replaced by the defaults.
func NewEngine(cfg config.ScanConfig, objects ObjectStore, repo StateRepository, ledger Ledger, processor Processor, opts ...Option) *Engine {
	full := config.Config{Scan: cfg}
	full.ApplyDefaults()
	e := &Engine{
		objects:    objects,
		repo:       repo,
		ledger:     ledger,
		processor:  processor,
		classifier: classify.New(),
		trigger:    noopTrigger{},
		cfg:        full.Scan,
		now:        time.Now,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLogger sets the logger
func (e *Engine) SetLogger(log *slog.Logger) {
	e.log = log
}

func (e *Engine) snapshot(p dto.Progress) dto.Snapshot {
	paused := e.paused.Load() && p.Status.Runnable()
	s := p.Snapshot(paused)
	if paused {
		s.Status = dto.StatusPaused
	}
	return s
}

// Progress returns the current progress with its derived fields.
// ok is false when no scan was ever started.
func (e *Engine) Progress(ctx context.Context) (dto.Snapshot, bool, error) {
	p, err := e.repo.Load(ctx)
	if err != nil {
		if isNoScan(err) {
			return dto.Snapshot{}, false, nil
		}
		return dto.Snapshot{}, false, fmt.Errorf("failed to load progress: %w", err)
	}
	return e.snapshot(p), true, nil
}

// Cancel stops the current scan. An item already being processed completes first.
func (e *Engine) Cancel(ctx context.Context) (dto.Snapshot, error) {
	now := e.now()
	p, err := e.repo.Mutate(ctx, func(p *dto.Progress) error {
		if p.Status.Terminal() || p.Status == dto.StatusIdle {
			return fmt.Errorf("%w: cannot cancel a %s scan", ErrInvalidTransition, p.Status)
		}
		p.Status = dto.StatusCancelled
		p.EndTime = &now
		p.LastUpdate = now
		return nil
	})
	if err != nil {
		return dto.Snapshot{}, err
	}
	e.trigger.Disarm()
	e.paused.Store(false)
	e.log.Info("Scan cancelled", slog.String("scan_id", p.ScanID), slog.Int("processed", p.ProcessedFiles))
	return e.snapshot(p), nil
}

// Pause halts batch processing in this process. Only LastUpdate is persisted.
func (e *Engine) Pause(ctx context.Context) (dto.Snapshot, error) {
	now := e.now()
	p, err := e.repo.Mutate(ctx, func(p *dto.Progress) error {
		if !p.Status.Runnable() {
			return fmt.Errorf("%w: cannot pause a %s scan", ErrInvalidTransition, p.Status)
		}
		p.LastUpdate = now
		return nil
	})
	if err != nil {
		return dto.Snapshot{}, err
	}
	e.paused.Store(true)
	e.log.Info("Scan paused", slog.String("scan_id", p.ScanID))
	return e.snapshot(p), nil
}

// Resume continues a paused scan or one stopped by an error. The queue is left as is.
func (e *Engine) Resume(ctx context.Context) (dto.Snapshot, error) {
	now := e.now()
	wasPaused := e.paused.Load()
	p, err := e.repo.Mutate(ctx, func(p *dto.Progress) error {
		if p.Status != dto.StatusError && !(wasPaused && p.Status.Runnable()) {
			return fmt.Errorf("%w: cannot resume a %s scan", ErrInvalidTransition, p.Status)
		}
		p.Status = dto.StatusReady
		p.LastError = ""
		p.LastUpdate = now
		return nil
	})
	if err != nil {
		return dto.Snapshot{}, err
	}
	e.paused.Store(false)
	if err := e.trigger.Arm(); err != nil {
		e.log.Warn("Failed to arm background trigger", slog.String("error", err.Error()))
	}
	e.log.Info("Scan resumed", slog.String("scan_id", p.ScanID))
	return e.snapshot(p), nil
}

// DeadLetters lists the items dropped after a failure, newest first.
func (e *Engine) DeadLetters(ctx context.Context, scanID string, limit int) ([]dto.DeadLetter, error) {
	dls, err := e.repo.ListDeadLetters(ctx, scanID, dto.ClampPageSize(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return dls, nil
}

// LastScan returns when the last scan completed.
func (e *Engine) LastScan(ctx context.Context) (time.Time, bool, error) {
	return e.repo.LastScan(ctx)
}
