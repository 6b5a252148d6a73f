// Package dbsvc is the Postgres implementation of the record store, the ledgers
// and the scan state repository.
package dbsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/sgaunet/s3ingest/pkg/database"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

var (
	_ ingest.Store            = (*Service)(nil)
	_ ledger.Store            = (*Service)(nil)
	_ scanner.StateRepository = (*Service)(nil)
)

// pgUniqueViolation is the SQLSTATE of a unique constraint violation.
const pgUniqueViolation = "23505"

// Service provides database operations for reports, ledgers and the scan state
type Service struct {
	db      *sql.DB
	queries *database.Queries
	log     *slog.Logger
}

// NewService creates a new database service
func NewService(db *sql.DB) *Service {
	return &Service{
		db:      db,
		queries: database.New(db),
		log:     slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for the service
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// execTx runs fn in a transaction, rolled back when fn fails.
func (s *Service) execTx(ctx context.Context, fn func(tx *sql.Tx, q *database.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx, s.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("Failed to rollback transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
