package dto

// Page size bounds for keyset listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ClampPageSize returns a usable page size for a requested limit.
// Zero or negative limits select DefaultPageSize.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}

// NewBugReportPage builds a page from rows fetched with limit+1.
// The extra row only signals that another page exists and is dropped.
func NewBugReportPage(rows []BugReport, limit int, total int64) BugReportPage {
	page := BugReportPage{Reports: rows, Total: total}
	if page.Reports == nil {
		page.Reports = []BugReport{}
	}
	if len(rows) > limit {
		page.Reports = rows[:limit]
		page.HasNext = true
	}
	if page.HasNext && len(page.Reports) > 0 {
		page.NextAfter = page.Reports[len(page.Reports)-1].ID
	}
	return page
}
