// Package ingest maps fetched JSON objects to bug report and diagnostic records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

var (
	// ErrInvalidPayload is returned when an object is not a JSON object.
	ErrInvalidPayload = errors.New("invalid JSON payload")
	// ErrDuplicate is returned by stores when the natural key of a record already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnknownKind is returned for items that are neither bug reports nor diagnostics.
	ErrUnknownKind = errors.New("unknown item kind")
)

// Store persists mapped records.
type Store interface {
	// InsertBugReport returns ErrDuplicate when (site_key, report_id) exists.
	InsertBugReport(ctx context.Context, r dto.BugReport) (int64, error)
	// InsertDiagnostic inserts the diagnostic row and its plugins atomically.
	// It returns ErrDuplicate when the file path exists.
	InsertDiagnostic(ctx context.Context, d dto.Diagnostic, plugins []dto.Plugin) (int64, error)
}

// Processor stores fetched payloads.
type Processor struct {
	store Store
	log   *slog.Logger
}

// NewProcessor creates a new processor writing to store.
func NewProcessor(store Store) *Processor {
	return &Processor{
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger
func (p *Processor) SetLogger(log *slog.Logger) {
	p.log = log
}

// Process dispatches item to the mapping of its kind.
func (p *Processor) Process(ctx context.Context, item dto.ClassifiedItem, payload []byte) error {
	switch item.Kind {
	case dto.KindBugReport:
		_, err := p.ProcessBugReport(ctx, item.Key, payload)
		return err
	case dto.KindDiagnostic:
		_, err := p.ProcessDiagnosticData(ctx, item.Key, payload)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, item.Kind)
	}
}

// ProcessBugReport maps and inserts a bug report. It returns the row id.
func (p *Processor) ProcessBugReport(ctx context.Context, key string, payload []byte) (int64, error) {
	r, err := MapBugReport(key, payload)
	if err != nil {
		return 0, err
	}
	id, err := p.store.InsertBugReport(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("insert bug report %s/%s: %w", r.SiteKey, r.ReportID, err)
	}
	p.log.Debug("Bug report stored",
		slog.String("key", key),
		slog.String("site_key", r.SiteKey),
		slog.Int64("id", id))
	return id, nil
}

// ProcessDiagnosticData maps and inserts a diagnostic file with its plugins. It returns the row id.
func (p *Processor) ProcessDiagnosticData(ctx context.Context, key string, payload []byte) (int64, error) {
	d, plugins, err := MapDiagnostic(key, payload)
	if err != nil {
		return 0, err
	}
	id, err := p.store.InsertDiagnostic(ctx, d, plugins)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic %s: %w", key, err)
	}
	p.log.Debug("Diagnostic stored",
		slog.String("key", key),
		slog.String("site_key", d.SiteKey),
		slog.Int("plugins", len(plugins)),
		slog.Int64("id", id))
	return id, nil
}
