package dbsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sgaunet/s3ingest/pkg/database"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

// batchLockKey identifies the batch lock among the advisory locks of the database.
const batchLockKey int64 = 0x7333696e67657374

var queueColumns = []string{
	"scan_id", "file_key", "kind", "directory", "item_timestamp",
	"size", "last_modified", "files_in_directory",
}

// Load returns the progress of the current scan, scanner.ErrNoScan when none was started.
func (s *Service) Load(ctx context.Context) (dto.Progress, error) {
	row, err := s.queries.GetScanState(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.Progress{}, scanner.ErrNoScan
		}
		return dto.Progress{}, fmt.Errorf("failed to load scan state: %w", err)
	}
	return progressFromRow(row)
}

// Begin replaces the progress and the queue in one transaction.
func (s *Service) Begin(ctx context.Context, p dto.Progress, queue []dto.ClassifiedItem) error {
	params, err := progressParams(p)
	if err != nil {
		return err
	}
	return s.execTx(ctx, func(tx *sql.Tx, q *database.Queries) error {
		if _, err := q.GetScanStateForUpdate(ctx); err != nil {
			return fmt.Errorf("failed to lock scan state: %w", err)
		}
		if err := q.UpdateScanState(ctx, params); err != nil {
			return fmt.Errorf("failed to write scan state: %w", err)
		}
		if err := q.ClearScanQueue(ctx); err != nil {
			return fmt.Errorf("failed to clear scan queue: %w", err)
		}
		return copyQueue(ctx, tx, params.ScanID.UUID, queue)
	})
}

// copyQueue bulk loads queue with COPY, keeping its order in the position column.
func copyQueue(ctx context.Context, tx *sql.Tx, scanID uuid.UUID, queue []dto.ClassifiedItem) error {
	if len(queue) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("scan_queue", queueColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare queue copy: %w", err)
	}
	for _, it := range queue {
		var lastModified any
		if !it.LastModified.IsZero() {
			lastModified = it.LastModified
		}
		_, err = stmt.ExecContext(ctx,
			scanID.String(),
			it.Key,
			string(it.Kind),
			it.Directory,
			it.Timestamp,
			it.Size,
			lastModified,
			it.FilesInDirectory,
		)
		if err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to copy queue item %s: %w", it.Key, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("failed to flush queue copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close queue copy: %w", err)
	}
	return nil
}

func (s *Service) Peek(ctx context.Context) (dto.ClassifiedItem, bool, error) {
	row, err := s.queries.PeekScanQueue(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return dto.ClassifiedItem{}, false, nil
	}
	if err != nil {
		return dto.ClassifiedItem{}, false, fmt.Errorf("failed to peek scan queue: %w", err)
	}
	return queueItem(row), true, nil
}

// Commit pops key from the queue head and applies fn under row locks.
func (s *Service) Commit(
	ctx context.Context,
	scanID, key string,
	fn func(*dto.Progress) error,
) (dto.Progress, int, error) {
	var (
		next      dto.Progress
		remaining int64
	)
	err := s.execTx(ctx, func(_ *sql.Tx, q *database.Queries) error {
		row, err := q.GetScanStateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock scan state: %w", err)
		}
		if !row.ScanID.Valid {
			return scanner.ErrNoScan
		}
		if row.ScanID.UUID.String() != scanID {
			return scanner.ErrQueueConflict
		}
		head, err := q.PeekScanQueueForUpdate(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return scanner.ErrQueueConflict
		}
		if err != nil {
			return fmt.Errorf("failed to lock queue head: %w", err)
		}
		if head.FileKey != key {
			return scanner.ErrQueueConflict
		}

		next, err = progressFromRow(row)
		if err != nil {
			return err
		}
		if err := fn(&next); err != nil {
			return err
		}
		params, err := progressParams(next)
		if err != nil {
			return err
		}
		if err := q.DeleteScanQueueItem(ctx, head.Position); err != nil {
			return fmt.Errorf("failed to pop queue head: %w", err)
		}
		if err := q.UpdateScanState(ctx, params); err != nil {
			return fmt.Errorf("failed to write scan state: %w", err)
		}
		remaining, err = q.CountScanQueue(ctx)
		return err
	})
	if err != nil {
		return dto.Progress{}, 0, err
	}
	return next, int(remaining), nil
}

func (s *Service) Mutate(ctx context.Context, fn func(*dto.Progress) error) (dto.Progress, error) {
	var next dto.Progress
	err := s.execTx(ctx, func(_ *sql.Tx, q *database.Queries) error {
		row, err := q.GetScanStateForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock scan state: %w", err)
		}
		next, err = progressFromRow(row)
		if err != nil {
			return err
		}
		if err := fn(&next); err != nil {
			return err
		}
		params, err := progressParams(next)
		if err != nil {
			return err
		}
		return q.UpdateScanState(ctx, params)
	})
	if err != nil {
		return dto.Progress{}, err
	}
	return next, nil
}

func (s *Service) QueueLen(ctx context.Context) (int, error) {
	n, err := s.queries.CountScanQueue(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count scan queue: %w", err)
	}
	return int(n), nil
}

// TryLock takes a session advisory lock on a dedicated connection.
// The lock is shared by every process using the database.
func (s *Service) TryLock(ctx context.Context) (func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for batch lock: %w", err)
	}
	q := database.New(conn)
	locked, err := q.TryAdvisoryLock(ctx, batchLockKey)
	if err != nil || !locked {
		if closeErr := conn.Close(); closeErr != nil {
			s.log.Warn("Failed to close lock connection", slog.String("error", closeErr.Error()))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to take batch lock: %w", err)
		}
		return nil, scanner.ErrBatchInProgress
	}

	return func() {
		ctx := context.Background()
		if _, err := q.AdvisoryUnlock(ctx, batchLockKey); err != nil {
			s.log.Error("Failed to release batch lock", slog.String("error", err.Error()))
		}
		if err := conn.Close(); err != nil {
			s.log.Warn("Failed to close lock connection", slog.String("error", err.Error()))
		}
	}, nil
}

func (s *Service) MarkLastScan(ctx context.Context, at time.Time) error {
	if err := s.queries.SetLastScanAt(ctx, sql.NullTime{Time: at, Valid: true}); err != nil {
		return fmt.Errorf("failed to record last scan: %w", err)
	}
	return nil
}

func (s *Service) LastScan(ctx context.Context) (time.Time, bool, error) {
	row, err := s.queries.GetScanState(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load scan state: %w", err)
	}
	return row.LastScanAt.Time, row.LastScanAt.Valid, nil
}

func (s *Service) AddDeadLetter(ctx context.Context, dl dto.DeadLetter) error {
	id, err := uuid.Parse(dl.ScanID)
	if err != nil {
		return fmt.Errorf("invalid scan id %q: %w", dl.ScanID, err)
	}
	_, err = s.queries.InsertDeadLetter(ctx, database.InsertDeadLetterParams{
		ScanID:    id,
		FileKey:   dl.Key,
		Kind:      string(dl.Kind),
		Directory: dl.Directory,
		Error:     dl.Error,
		FailedAt:  dl.FailedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}
	return nil
}

func (s *Service) ListDeadLetters(ctx context.Context, scanID string, limit int) ([]dto.DeadLetter, error) {
	rows, err := s.queries.ListDeadLetters(ctx, database.ListDeadLettersParams{
		ScanID:   scanID,
		RowLimit: int32(dto.ClampPageSize(limit)), //nolint:gosec // clamped
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	out := make([]dto.DeadLetter, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DeadLetter{
			ID:        r.ID,
			ScanID:    r.ScanID.String(),
			Key:       r.FileKey,
			Kind:      dto.ItemKind(r.Kind),
			Directory: r.Directory,
			Error:     r.Error,
			FailedAt:  r.FailedAt,
		})
	}
	return out, nil
}

func progressFromRow(row database.ScanState) (dto.Progress, error) {
	if !row.ScanID.Valid {
		return dto.Progress{}, scanner.ErrNoScan
	}
	p := dto.Progress{
		ScanID:                   row.ScanID.UUID.String(),
		Status:                   dto.ScanStatus(row.Status),
		TotalFiles:               int(row.TotalFiles),
		ProcessedFiles:           int(row.ProcessedFiles),
		ProcessedBugReports:      int(row.ProcessedBugReports),
		ProcessedDiagnosticFiles: int(row.ProcessedDiagnosticFiles),
		SkippedFiles:             int(row.SkippedFiles),
		ErrorFiles:               int(row.ErrorFiles),
		CurrentBatch:             int(row.CurrentBatch),
		TotalBatches:             int(row.TotalBatches),
		StartTime:                row.StartTime.Time,
		LastUpdate:               row.LastUpdate.Time,
		EndTime:                  timePtr(row.EndTime),
		LastError:                row.LastError,
		RecentErrors:             []dto.ItemError{},
	}
	if len(row.RecentErrors) > 0 {
		if err := json.Unmarshal(row.RecentErrors, &p.RecentErrors); err != nil {
			return dto.Progress{}, fmt.Errorf("failed to decode recent errors: %w", err)
		}
	}
	return p, nil
}

//nolint:gosec // counters are bounded by the listing limits
func progressParams(p dto.Progress) (database.UpdateScanStateParams, error) {
	id, err := uuid.Parse(p.ScanID)
	if err != nil {
		return database.UpdateScanStateParams{}, fmt.Errorf("invalid scan id %q: %w", p.ScanID, err)
	}
	recent := p.RecentErrors
	if recent == nil {
		recent = []dto.ItemError{}
	}
	raw, err := json.Marshal(recent)
	if err != nil {
		return database.UpdateScanStateParams{}, fmt.Errorf("failed to encode recent errors: %w", err)
	}
	return database.UpdateScanStateParams{
		ScanID:                   uuid.NullUUID{UUID: id, Valid: true},
		Status:                   string(p.Status),
		TotalFiles:               int32(p.TotalFiles),
		ProcessedFiles:           int32(p.ProcessedFiles),
		ProcessedBugReports:      int32(p.ProcessedBugReports),
		ProcessedDiagnosticFiles: int32(p.ProcessedDiagnosticFiles),
		SkippedFiles:             int32(p.SkippedFiles),
		ErrorFiles:               int32(p.ErrorFiles),
		CurrentBatch:             int32(p.CurrentBatch),
		TotalBatches:             int32(p.TotalBatches),
		StartTime:                nullTime(&p.StartTime),
		LastUpdate:               nullTime(&p.LastUpdate),
		EndTime:                  nullTime(p.EndTime),
		RecentErrors:             raw,
		LastError:                p.LastError,
	}, nil
}

func queueItem(row database.ScanQueue) dto.ClassifiedItem {
	return dto.ClassifiedItem{
		Key:              row.FileKey,
		Kind:             dto.ItemKind(row.Kind),
		Directory:        row.Directory,
		Timestamp:        row.ItemTimestamp,
		Size:             row.Size,
		LastModified:     row.LastModified.Time,
		FilesInDirectory: int(row.FilesInDirectory),
	}
}
