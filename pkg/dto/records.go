package dto

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Bug report statuses. Only StatusOpen is assigned by ingestion.
const (
	ReportOpen       = "open"
	ReportInProgress = "in_progress"
	ReportResolved   = "resolved"
	ReportClosed     = "closed"
)

// ValidReportStatus reports whether s is one of the bug report statuses.
func ValidReportStatus(s string) bool {
	switch s {
	case ReportOpen, ReportInProgress, ReportResolved, ReportClosed:
		return true
	}
	return false
}

// BugReport is one row per (SiteKey, ReportID).
type BugReport struct {
	ID                 int64      `json:"id"`
	SiteKey            string     `json:"site_key"`
	ReportID           string     `json:"report_id"`
	Email              string     `json:"email"`
	Message            string     `json:"message"`
	Priority           string     `json:"priority"`
	Severity           string     `json:"severity"`
	Status             string     `json:"status"`
	StepsToReproduce   string     `json:"steps_to_reproduce"`
	ExpectedBehavior   string     `json:"expected_behavior"`
	ActualBehavior     string     `json:"actual_behavior"`
	Frequency          string     `json:"frequency"`
	EnvironmentOS      string     `json:"environment_os"`
	EnvironmentBrowser string     `json:"environment_browser"`
	EnvironmentDevice  string     `json:"environment_device"`
	WPVersion          string     `json:"wp_version"`
	PHPVersion         string     `json:"php_version"`
	SiteURL            string     `json:"site_url"`
	PluginVersion      string     `json:"plugin_version"`
	CurrentTheme       string     `json:"current_theme"`
	Timestamp          *time.Time `json:"timestamp"`
	CreatedAt          time.Time  `json:"created_at"`
	AdminNotes         string     `json:"admin_notes"`
}

// Diagnostic is one row per diagnostic file path.
type Diagnostic struct {
	ID                int64      `json:"id"`
	SiteKey           string     `json:"site_key"`
	FilePath          string     `json:"file_path"`
	SiteURL           string     `json:"site_url"`
	WPVersion         string     `json:"wp_version"`
	PHPVersion        string     `json:"php_version"`
	MySQLVersion      string     `json:"mysql_version"`
	ServerSoftware    string     `json:"server_software"`
	OS                string     `json:"os"`
	MemoryLimit       string     `json:"memory_limit"`
	MaxExecutionTime  string     `json:"max_execution_time"`
	HostingProviderID *int64     `json:"hosting_provider_id"`
	HostingPackageID  string     `json:"hosting_package_id"`
	Country           string     `json:"country"`
	Region            string     `json:"region"`
	City              string     `json:"city"`
	Timestamp         *time.Time `json:"timestamp"`
	ProcessedAt       time.Time  `json:"processed_at"`
}

// Plugin is an active plugin reported by a diagnostic file.
type Plugin struct {
	ID           int64  `json:"id"`
	DiagnosticID int64  `json:"diagnostic_id"`
	Name         string `json:"plugin_name"`
	Version      string `json:"plugin_version"`
}

// BugReportFilter narrows a bug report listing.
type BugReportFilter struct {
	Status string
	// After is the id of the last report of the previous page (keyset cursor).
	After int64
	Limit int
}

// BugReportPage is one page of a keyset paginated listing.
type BugReportPage struct {
	Reports   []BugReport `json:"reports"`
	NextAfter int64       `json:"next_after,omitempty"`
	HasNext   bool        `json:"has_next"`
	Total     int64       `json:"total"`
}

// BugReportUpdate holds the admin fields to change. Nil fields are left as they are.
type BugReportUpdate struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}
