package ingest

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

var (
	siteURLMarker = regexp.MustCompile(`WordPress/[\d.]+;\s*(https?://[^\s]+)`)
	siteKeyInPath = regexp.MustCompile(`(?i)([a-f0-9]{32,64})/(?:\d+|\d{4}-\d{2}-\d{2}T[\d\-]+Z?)\.json$`)
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05Z",
}

// ParseTimestamp accepts Z-suffixed ISO-8601 timestamps with or without fractional seconds.
// Anything else yields nil.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ExtractSiteURL returns the URL following the "WordPress/<version>;" marker of a user agent.
func ExtractSiteURL(userAgent string) string {
	if m := siteURLMarker.FindStringSubmatch(userAgent); m != nil {
		return m[1]
	}
	return ""
}

// ReportID is the base name of key without its .json extension.
func ReportID(key string) string {
	base := path.Base(key)
	if strings.HasSuffix(strings.ToLower(base), ".json") {
		base = base[:len(base)-len(".json")]
	}
	return base
}

// MapBugReport flattens a bug report payload. Missing fields become empty values.
func MapBugReport(key string, payload []byte) (dto.BugReport, error) {
	doc, err := decodeDocument(payload)
	if err != nil {
		return dto.BugReport{}, err
	}
	return mapBugReport(key, doc), nil
}

func mapBugReport(key string, doc document) dto.BugReport {
	return dto.BugReport{
		SiteKey:            doc.str("siteKey"),
		ReportID:           ReportID(key),
		Email:              doc.str("report", "email"),
		Message:            doc.str("report", "message"),
		Priority:           doc.str("report", "priority"),
		Severity:           doc.str("report", "severity"),
		Status:             dto.ReportOpen,
		StepsToReproduce:   doc.str("report", "steps_to_reproduce"),
		ExpectedBehavior:   doc.str("report", "expected_behavior"),
		ActualBehavior:     doc.str("report", "actual_behavior"),
		Frequency:          doc.str("report", "frequency"),
		EnvironmentOS:      doc.str("report", "environment", "os"),
		EnvironmentBrowser: doc.str("report", "environment", "browser"),
		EnvironmentDevice:  doc.str("report", "environment", "device"),
		WPVersion:          doc.str("siteInfo", "wp_version"),
		PHPVersion:         doc.str("siteInfo", "php_version"),
		SiteURL:            doc.str("siteInfo", "site_url"),
		PluginVersion:      doc.str("siteInfo", "plugin_version"),
		CurrentTheme:       doc.str("siteInfo", "current_theme"),
		Timestamp:          ParseTimestamp(doc.str("timestamp")),
	}
}

// MapDiagnostic flattens a diagnostic payload and its active plugins.
func MapDiagnostic(key string, payload []byte) (dto.Diagnostic, []dto.Plugin, error) {
	doc, err := decodeDocument(payload)
	if err != nil {
		return dto.Diagnostic{}, nil, err
	}
	d, plugins := mapDiagnostic(key, doc)
	return d, plugins, nil
}

func mapDiagnostic(key string, doc document) (dto.Diagnostic, []dto.Plugin) {
	siteKey := doc.firstStr([]string{"siteInfo", "siteKey"}, []string{"siteKey"})
	if siteKey == "" {
		if m := siteKeyInPath.FindStringSubmatch(key); m != nil {
			siteKey = m[1]
		}
	}

	d := dto.Diagnostic{
		SiteKey:           siteKey,
		FilePath:          key,
		SiteURL:           ExtractSiteURL(doc.str("clientInfo", "userAgent")),
		WPVersion:         doc.str("environment", "wp_version"),
		PHPVersion:        doc.str("environment", "php_version"),
		MySQLVersion:      doc.str("environment", "mysql_version"),
		ServerSoftware:    doc.str("environment", "server_software"),
		OS:                doc.str("environment", "os"),
		MemoryLimit:       doc.str("environment", "memory_limit"),
		MaxExecutionTime:  doc.str("environment", "max_execution_time"),
		HostingProviderID: doc.int64Ptr("environment", "hosting_provider_id"),
		HostingPackageID:  doc.str("environment", "hosting_package_id"),
		Country:           doc.str("clientInfo", "country"),
		Region:            doc.str("clientInfo", "region"),
		City:              doc.str("clientInfo", "city"),
		Timestamp:         ParseTimestamp(doc.str("timestamp")),
	}

	var plugins []dto.Plugin
	for _, p := range doc.objects("environment", "active_plugins") {
		plugins = append(plugins, dto.Plugin{
			Name:    p.str("name"),
			Version: p.str("version"),
		})
	}
	return d, plugins
}
