package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ledger"
)

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// drainRetryDelay is how long Drain waits when another caller holds the batch lock.
const drainRetryDelay = time.Second

// ProcessNextBatch processes up to BatchSize queue items within MaxExecutionTime.
// Concurrent calls in one process share a single run; across processes the
// repository lock makes all but one caller fail with ErrBatchInProgress.
// The shared run does not follow the cancellation of any caller: a caller whose
// ctx is done gets ctx.Err() while the batch goes on to its item count or time budget.
func (e *Engine) ProcessNextBatch(ctx context.Context) (dto.Snapshot, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := e.batches.DoChan("batch", func() (any, error) {
		return e.processBatch(runCtx)
	})
	select {
	case <-ctx.Done():
		return dto.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return dto.Snapshot{}, res.Err
		}
		return res.Val.(dto.Snapshot), nil
	}
}

func (e *Engine) processBatch(ctx context.Context) (dto.Snapshot, error) {
	if e.paused.Load() {
		return dto.Snapshot{}, ErrPaused
	}
	release, err := e.repo.TryLock(ctx)
	if err != nil {
		return dto.Snapshot{}, err
	}
	defer release()

	started := e.now()
	p, err := e.repo.Mutate(ctx, func(p *dto.Progress) error {
		if !p.Status.Runnable() {
			return fmt.Errorf("%w: scan is %s", ErrNotRunnable, p.Status)
		}
		p.Status = dto.StatusProcessing
		p.LastUpdate = started
		return nil
	})
	if err != nil {
		return dto.Snapshot{}, err
	}

	deadline := started.Add(e.cfg.MaxExecutionTime)
	remaining := -1

	for attempted := 0; attempted < e.cfg.BatchSize; attempted++ {
		if !e.now().Before(deadline) {
			e.log.Info("Batch time budget exhausted",
				slog.String("scan_id", p.ScanID),
				slog.Int("attempted", attempted))
			break
		}
		if e.paused.Load() {
			break
		}
		item, ok, err := e.repo.Peek(ctx)
		if err != nil {
			return e.fail(ctx, fmt.Errorf("failed to read queue head: %w", err))
		}
		if !ok {
			remaining = 0
			break
		}

		res, itemErr := e.processItem(ctx, item)

		now := e.now()
		next, left, err := e.repo.Commit(ctx, p.ScanID, item.Key, func(p *dto.Progress) error {
			if p.Status != dto.StatusProcessing {
				return fmt.Errorf("%w: scan is %s", ErrNotRunnable, p.Status)
			}
			applyOutcome(p, item, res, itemErr, now, e.cfg.RecentErrorLimit)
			return nil
		})
		if errors.Is(err, ErrNotRunnable) {
			e.log.Info("Batch stopped, scan no longer runnable", slog.String("scan_id", p.ScanID))
			return e.current(ctx)
		}
		if err != nil {
			return e.fail(ctx, fmt.Errorf("failed to commit %s: %w", item.Key, err))
		}
		p, remaining = next, left
		recordOutcome(ctx, item.Kind, res)

		if res == outcomeFailed {
			e.log.Warn("Item failed",
				slog.String("key", item.Key),
				slog.String("error", itemErr.Error()))
			e.deadLetter(ctx, p.ScanID, item, itemErr, now)
		}
	}

	if remaining < 0 {
		remaining, err = e.repo.QueueLen(ctx)
		if err != nil {
			return e.fail(ctx, fmt.Errorf("failed to read queue length: %w", err))
		}
	}

	now := e.now()
	var completed bool
	p, err = e.repo.Mutate(ctx, func(p *dto.Progress) error {
		completed = false
		if p.Status != dto.StatusProcessing {
			return nil
		}
		p.CurrentBatch++
		p.LastUpdate = now
		if remaining == 0 {
			p.Status = dto.StatusCompleted
			p.EndTime = &now
			completed = true
		}
		return nil
	})
	if err != nil {
		return e.fail(ctx, fmt.Errorf("failed to close batch: %w", err))
	}
	recordBatch(ctx, completed)

	e.log.Info("Batch done",
		slog.String("scan_id", p.ScanID),
		slog.Int("batch", p.CurrentBatch),
		slog.Int("processed", p.ProcessedFiles),
		slog.Int("errors", p.ErrorFiles),
		slog.Int("skipped", p.SkippedFiles),
		slog.Int("remaining", remaining))

	if completed {
		if err := e.repo.MarkLastScan(ctx, now); err != nil {
			e.log.Warn("Failed to record last scan time", slog.String("error", err.Error()))
		}
		e.trigger.Disarm()
		e.log.Info("Scan completed",
			slog.String("scan_id", p.ScanID),
			slog.String("duration", dto.FormatDuration(now.Sub(p.StartTime))))
	}
	return e.snapshot(p), nil
}

// processItem ingests one item and marks the ledgers. Items found in the
// file ledger at this point were ingested by someone else and are skipped.
func (e *Engine) processItem(ctx context.Context, item dto.ClassifiedItem) (outcome, error) {
	done, err := e.ledger.IsFileProcessed(ctx, item.Key)
	if err != nil {
		return outcomeFailed, err
	}
	if done {
		return outcomeSkipped, nil
	}

	payload, err := e.objects.GetObject(ctx, item.Key)
	if err != nil {
		return outcomeFailed, err
	}
	if err := e.processor.Process(ctx, item, payload); err != nil {
		return outcomeFailed, err
	}
	if err := e.ledger.MarkFileProcessed(ctx, item.Key, ledger.ContentHash(payload)); err != nil {
		return outcomeFailed, err
	}
	if item.Kind == dto.KindDiagnostic && item.Directory != "" {
		if err := e.ledger.MarkDirectoryProcessed(ctx, item.Directory); err != nil {
			return outcomeFailed, err
		}
	}
	return outcomeProcessed, nil
}

func applyOutcome(p *dto.Progress, item dto.ClassifiedItem, res outcome, itemErr error, now time.Time, limit int) {
	switch res {
	case outcomeProcessed:
		p.ProcessedFiles++
		if item.Kind == dto.KindBugReport {
			p.ProcessedBugReports++
		} else {
			p.ProcessedDiagnosticFiles++
		}
	case outcomeSkipped:
		p.SkippedFiles++
	case outcomeFailed:
		p.ErrorFiles++
		p.RecordError(dto.ItemError{Key: item.Key, Error: itemErr.Error(), Time: now}, limit)
	}
	p.LastUpdate = now
}

func (e *Engine) deadLetter(ctx context.Context, scanID string, item dto.ClassifiedItem, itemErr error, at time.Time) {
	err := e.repo.AddDeadLetter(ctx, dto.DeadLetter{
		ScanID:    scanID,
		Key:       item.Key,
		Kind:      item.Kind,
		Directory: item.Directory,
		Error:     itemErr.Error(),
		FailedAt:  at,
	})
	if err != nil {
		e.log.Warn("Failed to record dead letter",
			slog.String("key", item.Key),
			slog.String("error", err.Error()))
	}
}

// fail moves the scan to StatusError and returns cause.
func (e *Engine) fail(ctx context.Context, cause error) (dto.Snapshot, error) {
	now := e.now()
	_, err := e.repo.Mutate(ctx, func(p *dto.Progress) error {
		p.Status = dto.StatusError
		p.LastError = cause.Error()
		p.LastUpdate = now
		return nil
	})
	if err != nil {
		e.log.Error("Failed to record scan error", slog.String("error", err.Error()))
	}
	e.log.Error("Batch failed", slog.String("error", cause.Error()))
	return dto.Snapshot{}, cause
}

func (e *Engine) current(ctx context.Context) (dto.Snapshot, error) {
	p, err := e.repo.Load(ctx)
	if err != nil {
		return dto.Snapshot{}, fmt.Errorf("failed to load progress: %w", err)
	}
	return e.snapshot(p), nil
}

// RunBackground is the entry point of the background trigger. It runs a batch
// only while the scan is runnable and not paused, and tolerates a busy lock.
func (e *Engine) RunBackground(ctx context.Context) error {
	if e.paused.Load() {
		return nil
	}
	p, err := e.repo.Load(ctx)
	if isNoScan(err) {
		e.trigger.Disarm()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if !p.Status.Runnable() {
		if p.Status.Terminal() {
			e.trigger.Disarm()
		}
		return nil
	}

	_, err = e.ProcessNextBatch(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBatchInProgress), errors.Is(err, ErrNotRunnable), errors.Is(err, ErrPaused):
		e.log.Debug("Background batch skipped", slog.String("reason", err.Error()))
		return nil
	default:
		return err
	}
}

// Drain runs batches until the scan leaves the runnable states or ctx is done.
func (e *Engine) Drain(ctx context.Context, onBatch func(dto.Snapshot)) (dto.Snapshot, error) {
	for {
		s, err := e.ProcessNextBatch(ctx)
		switch {
		case errors.Is(err, ErrBatchInProgress):
			select {
			case <-ctx.Done():
				return dto.Snapshot{}, ctx.Err()
			case <-time.After(drainRetryDelay):
			}
			continue
		case err != nil:
			return dto.Snapshot{}, err
		}
		if onBatch != nil {
			onBatch(s)
		}
		if !s.Status.Runnable() {
			return s, nil
		}
		if err := ctx.Err(); err != nil {
			return s, err
		}
	}
}
