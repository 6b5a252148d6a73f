package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/dto"
)

type discoveryStats struct {
	listed         int
	nonJSON        int
	processedFiles int
	processedDirs  int
	unclassified   int
}

// Start discovers the bucket and persists a fresh queue and progress.
// It is valid when no scan exists or the previous one completed or was cancelled.
// Listing failures of the root prefix are returned wrapped in ErrDiscovery.
func (e *Engine) Start(ctx context.Context) (StartResult, error) {
	release, err := e.repo.TryLock(ctx)
	if err != nil {
		if errors.Is(err, ErrBatchInProgress) {
			return StartResult{}, fmt.Errorf("%w: %w", ErrScanInProgress, err)
		}
		return StartResult{}, fmt.Errorf("failed to take batch lock: %w", err)
	}
	defer release()

	prev, err := e.repo.Load(ctx)
	switch {
	case isNoScan(err):
	case err != nil:
		return StartResult{}, fmt.Errorf("failed to load progress: %w", err)
	case !prev.Status.Terminal() && prev.Status != dto.StatusIdle:
		return StartResult{}, fmt.Errorf("%w: current scan is %s", ErrScanInProgress, prev.Status)
	}

	objects, err := e.discover(ctx)
	if err != nil {
		return StartResult{}, err
	}
	queue, stats, err := e.buildQueue(ctx, objects)
	if err != nil {
		return StartResult{}, err
	}

	now := e.now()
	p := dto.NewProgress(uuid.NewString(), len(queue), e.cfg.BatchSize, now)
	if len(queue) == 0 {
		p.Status = dto.StatusCompleted
		p.EndTime = &now
	}
	if err := e.repo.Begin(ctx, p, queue); err != nil {
		return StartResult{}, fmt.Errorf("failed to persist scan state: %w", err)
	}
	e.paused.Store(false)

	e.log.Info("Scan started",
		slog.String("scan_id", p.ScanID),
		slog.Int("listed", stats.listed),
		slog.Int("queued", len(queue)),
		slog.Int("non_json", stats.nonJSON),
		slog.Int("processed_files", stats.processedFiles),
		slog.Int("processed_directories", stats.processedDirs),
		slog.Int("unclassified", stats.unclassified),
		slog.Int("total_batches", p.TotalBatches))

	if len(queue) == 0 {
		if err := e.repo.MarkLastScan(ctx, now); err != nil {
			e.log.Warn("Failed to record last scan time", slog.String("error", err.Error()))
		}
	} else if err := e.trigger.Arm(); err != nil {
		e.log.Warn("Failed to arm background trigger", slog.String("error", err.Error()))
	}

	return StartResult{
		TotalFiles:   p.TotalFiles,
		TotalBatches: p.TotalBatches,
		Progress:     e.snapshot(p),
	}, nil
}

// discover lists the root prefix and the bug report prefix, merged by key.
// Only the root listing is mandatory.
func (e *Engine) discover(ctx context.Context) ([]dto.S3Object, error) {
	root, err := e.objects.ListObjects(ctx, e.cfg.RootPrefix, e.cfg.RootMaxKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	merged := make([]dto.S3Object, 0, len(root))
	for _, obj := range root {
		if seen.Add(obj.Key) {
			merged = append(merged, obj)
		}
	}

	reports, err := e.objects.ListObjects(ctx, e.cfg.BugReportPrefix, e.cfg.BugReportMaxKeys)
	if err != nil {
		e.log.Warn("Failed to list bug reports, continuing with the root listing",
			slog.String("prefix", e.cfg.BugReportPrefix),
			slog.String("error", err.Error()))
		return merged, nil
	}
	for _, obj := range reports {
		if seen.Add(obj.Key) {
			merged = append(merged, obj)
		}
	}
	return merged, nil
}

// buildQueue drops what was already ingested and reduces each directory to its latest file.
func (e *Engine) buildQueue(ctx context.Context, objects []dto.S3Object) ([]dto.ClassifiedItem, discoveryStats, error) {
	stats := discoveryStats{listed: len(objects)}
	builder := classify.NewQueueBuilder()
	dirDone := make(map[string]bool)

	for _, obj := range objects {
		if !classify.IsJSON(obj.Key) {
			stats.nonJSON++
			continue
		}
		done, err := e.ledger.IsFileProcessed(ctx, obj.Key)
		if err != nil {
			return nil, stats, err
		}
		if done {
			stats.processedFiles++
			continue
		}
		item, ok := e.classifier.Classify(obj)
		if !ok {
			stats.unclassified++
			continue
		}
		if item.Kind == dto.KindDiagnostic {
			done, known := dirDone[item.Directory]
			if !known {
				done, err = e.ledger.IsDirectoryProcessed(ctx, item.Directory)
				if err != nil {
					return nil, stats, err
				}
				dirDone[item.Directory] = done
			}
			if done {
				stats.processedDirs++
				continue
			}
		}
		builder.Add(item)
	}
	return builder.Items(), stats, nil
}
