package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/dto"
)

// RunFullScan lists the root prefix once and ingests every new JSON object in the
// same call, without batching, time budget or per-directory reduction.
// It only suits small buckets; large ones go through Start and ProcessNextBatch.
func (e *Engine) RunFullScan(ctx context.Context) (dto.FullScanResult, error) {
	objects, err := e.objects.ListObjects(ctx, e.cfg.RootPrefix, e.cfg.FullScanMaxKeys)
	if err != nil {
		return dto.FullScanResult{}, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	res := dto.FullScanResult{TotalObjects: len(objects)}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !classify.IsJSON(obj.Key) {
			res.Skipped++
			continue
		}

		item := dto.ClassifiedItem{
			Key:          obj.Key,
			Kind:         dto.KindDiagnostic,
			Directory:    classify.ExtractDirectory(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}
		if classify.IsBugReport(obj.Key) {
			item.Kind = dto.KindBugReport
			item.Directory = ""
		}

		out, itemErr := e.processItem(ctx, item)
		recordOutcome(ctx, item.Kind, out)
		switch out {
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Errors++
			e.log.Warn("Full scan item failed",
				slog.String("key", obj.Key),
				slog.String("error", itemErr.Error()))
		case outcomeProcessed:
			res.Processed++
			if item.Kind == dto.KindBugReport {
				res.NewBugReports++
			} else {
				res.NewDiagnosticFiles++
			}
		}
	}

	if err := e.repo.MarkLastScan(ctx, e.now()); err != nil {
		e.log.Warn("Failed to record last scan time", slog.String("error", err.Error()))
	}
	e.log.Info("Full scan done",
		slog.Int("total", res.TotalObjects),
		slog.Int("processed", res.Processed),
		slog.Int("skipped", res.Skipped),
		slog.Int("errors", res.Errors))
	return res, nil
}
