// Package scheduler drives the scan engine from cron schedules: background
// batches while a scan is runnable, and optional periodic rescans.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

// Engine is the part of the scan engine driven by the scheduler.
type Engine interface {
	RunBackground(ctx context.Context) error
	Start(ctx context.Context) (scanner.StartResult, error)
	Progress(ctx context.Context) (dto.Snapshot, bool, error)
}

// Scheduler implements scanner.Trigger on top of a cron instance.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.ScanConfig
	engine Engine
	log    *slog.Logger

	mu     sync.Mutex
	ctx    context.Context //nolint:containedctx // jobs outlive the call that armed them
	entry  cron.EntryID
	armed  bool
	rescan cron.EntryID
}

var _ scanner.Trigger = (*Scheduler)(nil)

// NewScheduler creates a scheduler. Bind must be called before Start.
func NewScheduler(cfg config.ScanConfig) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:  cfg,
		log:  slog.New(slog.DiscardHandler),
		ctx:  context.Background(),
	}
}

// SetLogger sets the logger for the scheduler
func (s *Scheduler) SetLogger(log *slog.Logger) {
	s.log = log
}

// Bind sets the engine run by the jobs. The engine usually holds the scheduler
// as its trigger, hence the two step construction.
func (s *Scheduler) Bind(e Engine) {
	s.engine = e
}

// Arm schedules background batches. It is a no-op when background processing
// is disabled or the job is already scheduled.
func (s *Scheduler) Arm() error {
	if !s.cfg.EnableBackground {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return nil
	}
	id, err := s.cron.AddFunc(s.cfg.BackgroundSchedule, s.runBatch)
	if err != nil {
		return fmt.Errorf("invalid background schedule %q: %w", s.cfg.BackgroundSchedule, err)
	}
	s.entry = id
	s.armed = true
	s.log.Info("Background batches armed", slog.String("schedule", s.cfg.BackgroundSchedule))
	return nil
}

// Disarm removes the background job.
func (s *Scheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return
	}
	s.cron.Remove(s.entry)
	s.armed = false
	s.log.Info("Background batches disarmed")
}

// Armed reports whether the background job is scheduled.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Start starts the cron loop. A scan left runnable by a previous process is picked up again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.engine == nil {
		return errors.New("scheduler has no engine bound")
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.cfg.RescanSchedule != "" {
		id, err := s.cron.AddFunc(s.cfg.RescanSchedule, s.runRescan)
		if err != nil {
			return fmt.Errorf("invalid rescan schedule %q: %w", s.cfg.RescanSchedule, err)
		}
		s.rescan = id
		s.log.Info("Periodic rescan scheduled", slog.String("schedule", s.cfg.RescanSchedule))
	}

	snap, ok, err := s.engine.Progress(ctx)
	if err != nil {
		s.log.Warn("Cannot read scan progress", slog.String("error", err.Error()))
	} else if ok && snap.Status.Runnable() {
		s.log.Info("Resuming unfinished scan", slog.String("scan_id", snap.ScanID))
		if err := s.Arm(); err != nil {
			return err
		}
	}

	s.log.Info("Starting scheduler")
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) runBatch() {
	if err := s.engine.RunBackground(s.jobContext()); err != nil {
		s.log.Error("Background batch failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) runRescan() {
	res, err := s.engine.Start(s.jobContext())
	switch {
	case errors.Is(err, scanner.ErrScanInProgress):
		s.log.Debug("Rescan skipped, a scan is in progress")
	case err != nil:
		s.log.Error("Scheduled rescan failed", slog.String("error", err.Error()))
	default:
		s.log.Info("Scheduled rescan started",
			slog.String("scan_id", res.Progress.ScanID),
			slog.Int("files", res.TotalFiles))
	}
}
