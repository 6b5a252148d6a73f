package dbsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sgaunet/s3ingest/pkg/database"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
)

// InsertBugReport stores r. It returns ingest.ErrDuplicate when (site_key, report_id) exists.
func (s *Service) InsertBugReport(ctx context.Context, r dto.BugReport) (int64, error) {
	if r.Status == "" {
		r.Status = dto.ReportOpen
	}
	id, err := s.queries.InsertBugReport(ctx, database.InsertBugReportParams{
		SiteKey:            r.SiteKey,
		ReportID:           r.ReportID,
		Email:              r.Email,
		Message:            r.Message,
		Priority:           r.Priority,
		Severity:           r.Severity,
		Status:             r.Status,
		StepsToReproduce:   r.StepsToReproduce,
		ExpectedBehavior:   r.ExpectedBehavior,
		ActualBehavior:     r.ActualBehavior,
		Frequency:          r.Frequency,
		EnvironmentOs:      r.EnvironmentOS,
		EnvironmentBrowser: r.EnvironmentBrowser,
		EnvironmentDevice:  r.EnvironmentDevice,
		WpVersion:          r.WPVersion,
		PhpVersion:         r.PHPVersion,
		SiteUrl:            r.SiteURL,
		PluginVersion:      r.PluginVersion,
		CurrentTheme:       r.CurrentTheme,
		Timestamp:          nullTime(r.Timestamp),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ingest.ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert bug report: %w", err)
	}
	return id, nil
}

// InsertDiagnostic stores d and its plugins in one transaction.
// It returns ingest.ErrDuplicate when the file path exists.
func (s *Service) InsertDiagnostic(ctx context.Context, d dto.Diagnostic, plugins []dto.Plugin) (int64, error) {
	var id int64
	err := s.execTx(ctx, func(_ *sql.Tx, q *database.Queries) error {
		var err error
		id, err = q.InsertDiagnostic(ctx, database.InsertDiagnosticParams{
			SiteKey:           d.SiteKey,
			FilePath:          d.FilePath,
			SiteUrl:           d.SiteURL,
			WpVersion:         d.WPVersion,
			PhpVersion:        d.PHPVersion,
			MysqlVersion:      d.MySQLVersion,
			ServerSoftware:    d.ServerSoftware,
			Os:                d.OS,
			MemoryLimit:       d.MemoryLimit,
			MaxExecutionTime:  d.MaxExecutionTime,
			HostingProviderID: nullInt64(d.HostingProviderID),
			HostingPackageID:  d.HostingPackageID,
			Country:           d.Country,
			Region:            d.Region,
			City:              d.City,
			Timestamp:         nullTime(d.Timestamp),
		})
		if err != nil {
			return err
		}
		for _, p := range plugins {
			err = q.InsertSitePlugin(ctx, database.InsertSitePluginParams{
				DiagnosticID:  id,
				PluginName:    p.Name,
				PluginVersion: p.Version,
			})
			if err != nil {
				return fmt.Errorf("failed to insert plugin %q: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ingest.ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert diagnostic: %w", err)
	}
	return id, nil
}

// ListPlugins returns the plugins recorded with diagnostic id.
func (s *Service) ListPlugins(ctx context.Context, diagnosticID int64) ([]dto.Plugin, error) {
	rows, err := s.queries.ListSitePlugins(ctx, diagnosticID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}
	out := make([]dto.Plugin, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.Plugin{
			ID:           r.ID,
			DiagnosticID: r.DiagnosticID,
			Name:         r.PluginName,
			Version:      r.PluginVersion,
		})
	}
	return out, nil
}

// ListBugReports returns one keyset page of reports, newest first.
func (s *Service) ListBugReports(ctx context.Context, filter dto.BugReportFilter) (dto.BugReportPage, error) {
	limit := dto.ClampPageSize(filter.Limit)
	rows, err := s.queries.ListBugReports(ctx, database.ListBugReportsParams{
		Status:   filter.Status,
		After:    filter.After,
		RowLimit: int32(limit + 1), //nolint:gosec // limit is clamped
	})
	if err != nil {
		return dto.BugReportPage{}, fmt.Errorf("failed to list bug reports: %w", err)
	}
	total, err := s.queries.CountBugReports(ctx, filter.Status)
	if err != nil {
		return dto.BugReportPage{}, fmt.Errorf("failed to count bug reports: %w", err)
	}

	reports := make([]dto.BugReport, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, bugReportToDTO(r))
	}
	return dto.NewBugReportPage(reports, limit, total), nil
}

// UpdateBugReport changes the admin fields of report id.
func (s *Service) UpdateBugReport(ctx context.Context, id int64, upd dto.BugReportUpdate) (dto.BugReport, error) {
	row, err := s.queries.UpdateBugReportAdmin(ctx, database.UpdateBugReportAdminParams{
		Status:     nullString(upd.Status),
		AdminNotes: nullString(upd.AdminNotes),
		ID:         id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.BugReport{}, dto.ErrNotFound
		}
		return dto.BugReport{}, fmt.Errorf("failed to update bug report %d: %w", id, err)
	}
	return bugReportToDTO(row), nil
}

func bugReportToDTO(r database.BugReport) dto.BugReport {
	return dto.BugReport{
		ID:                 r.ID,
		SiteKey:            r.SiteKey,
		ReportID:           r.ReportID,
		Email:              r.Email,
		Message:            r.Message,
		Priority:           r.Priority,
		Severity:           r.Severity,
		Status:             r.Status,
		StepsToReproduce:   r.StepsToReproduce,
		ExpectedBehavior:   r.ExpectedBehavior,
		ActualBehavior:     r.ActualBehavior,
		Frequency:          r.Frequency,
		EnvironmentOS:      r.EnvironmentOs,
		EnvironmentBrowser: r.EnvironmentBrowser,
		EnvironmentDevice:  r.EnvironmentDevice,
		WPVersion:          r.WpVersion,
		PHPVersion:         r.PhpVersion,
		SiteURL:            r.SiteUrl,
		PluginVersion:      r.PluginVersion,
		CurrentTheme:       r.CurrentTheme,
		Timestamp:          timePtr(r.Timestamp),
		CreatedAt:          r.CreatedAt,
		AdminNotes:         r.AdminNotes,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
