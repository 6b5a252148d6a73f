package ingest

import (
	"github.com/sgaunet/s3ingest/pkg/dto"
)

// Inspection is the dry-run result of mapping a payload without storing it.
type Inspection struct {
	Key        string          `json:"key"`
	Kind       dto.ItemKind    `json:"kind"`
	BugReport  *dto.BugReport  `json:"bug_report,omitempty"`
	Diagnostic *dto.Diagnostic `json:"diagnostic,omitempty"`
	Plugins    []dto.Plugin    `json:"plugins,omitempty"`
	Issues     []string        `json:"issues"`
}

// Inspect maps payload as kind and lists the fields the record would miss.
// Only an unparsable payload is an error.
func Inspect(key string, kind dto.ItemKind, payload []byte) (Inspection, error) {
	doc, err := decodeDocument(payload)
	if err != nil {
		return Inspection{}, err
	}
	res := Inspection{Key: key, Kind: kind, Issues: []string{}}

	switch kind {
	case dto.KindBugReport:
		r := mapBugReport(key, doc)
		res.BugReport = &r
		if _, ok := doc.lookup("siteKey"); !ok {
			res.Issues = append(res.Issues, "missing siteKey")
		}
		if _, ok := doc.lookup("report"); !ok {
			res.Issues = append(res.Issues, "missing report")
		}
		if r.Timestamp == nil {
			res.Issues = append(res.Issues, "missing or unparsable timestamp")
		}
	default:
		d, plugins := mapDiagnostic(key, doc)
		res.Kind = dto.KindDiagnostic
		res.Diagnostic = &d
		res.Plugins = plugins
		if d.SiteKey == "" {
			res.Issues = append(res.Issues, "missing site_key")
		}
		if d.SiteURL == "" {
			res.Issues = append(res.Issues, "missing site_url (could not extract from userAgent)")
		}
		if d.WPVersion == "" {
			res.Issues = append(res.Issues, "missing wp_version")
		}
	}
	return res, nil
}
