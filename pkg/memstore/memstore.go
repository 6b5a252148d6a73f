// Package memstore keeps records, ledgers and the scan state in memory.
// It backs tests and the "memory" storage setting; nothing survives a restart.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

var (
	_ ingest.Store            = (*Store)(nil)
	_ ledger.Store            = (*Store)(nil)
	_ scanner.StateRepository = (*Store)(nil)
)

type reportIdentity struct {
	siteKey  string
	reportID string
}

// Store implements ingest.Store, ledger.Store and scanner.StateRepository.
type Store struct {
	mu sync.Mutex

	reports     []dto.BugReport
	reportIDs   map[reportIdentity]int64
	diagnostics []dto.Diagnostic
	diagPaths   map[string]int64
	plugins     []dto.Plugin
	nextID      int64

	files map[string]string
	dirs  map[string]time.Time

	progress    *dto.Progress
	queue       []dto.ClassifiedItem
	lastScan    *time.Time
	deadLetters []dto.DeadLetter

	lockMu sync.Mutex
	locked bool

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		reportIDs: make(map[reportIdentity]int64),
		diagPaths: make(map[string]int64),
		files:     make(map[string]string),
		dirs:      make(map[string]time.Time),
		now:       time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

// InsertBugReport stores r unless its (site key, report id) exists.
func (s *Store) InsertBugReport(_ context.Context, r dto.BugReport) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := reportIdentity{r.SiteKey, r.ReportID}
	if _, ok := s.reportIDs[k]; ok {
		return 0, ingest.ErrDuplicate
	}
	r.ID = s.newID()
	if r.Status == "" {
		r.Status = dto.ReportOpen
	}
	r.CreatedAt = s.now()
	s.reports = append(s.reports, r)
	s.reportIDs[k] = r.ID
	return r.ID, nil
}

// InsertDiagnostic stores d and its plugins unless the file path exists.
func (s *Store) InsertDiagnostic(_ context.Context, d dto.Diagnostic, plugins []dto.Plugin) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.diagPaths[d.FilePath]; ok {
		return 0, ingest.ErrDuplicate
	}
	d.ID = s.newID()
	d.ProcessedAt = s.now()
	s.diagnostics = append(s.diagnostics, d)
	s.diagPaths[d.FilePath] = d.ID
	for _, p := range plugins {
		p.ID = s.newID()
		p.DiagnosticID = d.ID
		s.plugins = append(s.plugins, p)
	}
	return d.ID, nil
}

// ListBugReports returns reports newest first, after the keyset cursor of filter.
func (s *Store) ListBugReports(_ context.Context, filter dto.BugReportFilter) (dto.BugReportPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := dto.ClampPageSize(filter.Limit)
	var total int64
	rows := make([]dto.BugReport, 0, limit+1)
	for i := len(s.reports) - 1; i >= 0; i-- {
		r := s.reports[i]
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		total++
		if filter.After > 0 && r.ID >= filter.After {
			continue
		}
		if len(rows) <= limit {
			rows = append(rows, r)
		}
	}
	return dto.NewBugReportPage(rows, limit, total), nil
}

// UpdateBugReport changes the admin fields of report id.
func (s *Store) UpdateBugReport(_ context.Context, id int64, upd dto.BugReportUpdate) (dto.BugReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reports {
		if s.reports[i].ID != id {
			continue
		}
		if upd.Status != nil {
			s.reports[i].Status = *upd.Status
		}
		if upd.AdminNotes != nil {
			s.reports[i].AdminNotes = *upd.AdminNotes
		}
		return s.reports[i], nil
	}
	return dto.BugReport{}, dto.ErrNotFound
}

// BugReports returns a copy of every stored report in insertion order.
func (s *Store) BugReports() []dto.BugReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reports)
}

// Diagnostics returns a copy of every stored diagnostic in insertion order.
func (s *Store) Diagnostics() []dto.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.diagnostics)
}

// Plugins returns the plugins of diagnostic id.
func (s *Store) Plugins(diagnosticID int64) []dto.Plugin {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.Plugin
	for _, p := range s.plugins {
		if p.DiagnosticID == diagnosticID {
			out = append(out, p)
		}
	}
	return out
}
