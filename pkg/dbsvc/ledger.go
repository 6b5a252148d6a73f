package dbsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sgaunet/s3ingest/pkg/database"
)

func (s *Service) FileExists(ctx context.Context, key string) (bool, error) {
	ok, err := s.queries.ProcessedFileExists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to look up processed file: %w", err)
	}
	return ok, nil
}

// InsertFile records key; an existing entry keeps its first hash.
func (s *Service) InsertFile(ctx context.Context, key, hash string) error {
	err := s.queries.InsertProcessedFile(ctx, database.InsertProcessedFileParams{
		FilePath: key,
		FileHash: hash,
	})
	if err != nil {
		return fmt.Errorf("failed to insert processed file: %w", err)
	}
	return nil
}

func (s *Service) DirectoryMarkedAt(ctx context.Context, dir string) (time.Time, bool, error) {
	at, err := s.queries.GetDirectoryMarkedAt(ctx, dir)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to look up processed directory: %w", err)
	}
	return at, true, nil
}

func (s *Service) UpsertDirectory(ctx context.Context, dir string, at time.Time) error {
	err := s.queries.UpsertProcessedDirectory(ctx, database.UpsertProcessedDirectoryParams{
		Directory: dir,
		MarkedAt:  at,
	})
	if err != nil {
		return fmt.Errorf("failed to mark directory: %w", err)
	}
	return nil
}

func (s *Service) ClearFiles(ctx context.Context) (int64, error) {
	n, err := s.queries.ClearProcessedFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear processed files: %w", err)
	}
	return n, nil
}

func (s *Service) ClearDirectories(ctx context.Context) (int64, error) {
	n, err := s.queries.ClearProcessedDirectories(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear processed directories: %w", err)
	}
	return n, nil
}
