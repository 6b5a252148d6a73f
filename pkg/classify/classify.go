// Package classify decides what an object key holds and which site directory it belongs to.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

var (
	hexNumericKey = regexp.MustCompile(`(?i)^([a-f0-9]{32,64})/\d+\.json$`)
	hexDatedKey   = regexp.MustCompile(`(?i)^([a-f0-9]{32,64})/\d{4}-\d{2}-\d{2}T[\d\-]+Z?\.json$`)
	genericKey    = regexp.MustCompile(`(?i)^([^/]+)/[^/]+\.json$`)

	numericName = regexp.MustCompile(`(?i)/(\d+)\.json$`)
	datedName   = regexp.MustCompile(`(?i)/(\d{4}-\d{2}-\d{2}T[\d\-]+Z?)\.json$`)
	// 2025-06-24T17-04-36-510Z
	datedParts = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T(\d{2})-(\d{2})-(\d{2})(?:-\d+)?Z?$`)
)

// Classifier turns listed objects into queue candidates.
// The clock is only consulted when a key carries no usable timestamp.
type Classifier struct {
	now func() time.Time
}

// New returns a Classifier using the wall clock.
func New() *Classifier {
	return &Classifier{now: time.Now}
}

// NewWithClock returns a Classifier with an injected clock.
func NewWithClock(now func() time.Time) *Classifier {
	return &Classifier{now: now}
}

// IsBugReport reports whether key holds a bug report.
// The three checks overlap; the last one alone would cover the first two.
func IsBugReport(key string) bool {
	return strings.Contains(key, "bug-reports/") ||
		strings.HasPrefix(key, "bug-reports") ||
		strings.Contains(strings.ToLower(key), "bug-report")
}

// IsJSON reports whether key names a JSON document (case-insensitive extension).
func IsJSON(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), ".json")
}

// ExtractDirectory returns the site directory of a diagnostic key,
// or "" when the key matches none of the known layouts.
func ExtractDirectory(key string) string {
	for _, re := range []*regexp.Regexp{hexNumericKey, hexDatedKey, genericKey} {
		if m := re.FindStringSubmatch(key); m != nil {
			return m[1]
		}
	}
	return ""
}

// SiteHash returns the hex site hash of key when it follows one of the hashed layouts.
func SiteHash(key string) string {
	for _, re := range []*regexp.Regexp{hexNumericKey, hexDatedKey} {
		if m := re.FindStringSubmatch(key); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParseKeyTimestamp extracts the epoch seconds encoded in the file name of key.
func ParseKeyTimestamp(key string) (int64, bool) {
	if m := numericName.FindStringSubmatch(key); m != nil {
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			return ts, true
		}
	}
	if m := datedName.FindStringSubmatch(key); m != nil {
		p := datedParts.FindStringSubmatch(strings.ToUpper(m[1]))
		if p == nil {
			return 0, false
		}
		t, err := time.Parse("2006-01-02 15:04:05", p[1]+" "+p[2]+":"+p[3]+":"+p[4])
		if err == nil {
			return t.UTC().Unix(), true
		}
	}
	return 0, false
}

// ExtractTimestamp is ParseKeyTimestamp falling back to the current time.
func (c *Classifier) ExtractTimestamp(key string) int64 {
	if ts, ok := ParseKeyTimestamp(key); ok {
		return ts
	}
	return c.now().Unix()
}

// Classify maps an object to a queue candidate. ok is false for non-JSON keys
// and for diagnostic keys without a directory.
func (c *Classifier) Classify(obj dto.S3Object) (dto.ClassifiedItem, bool) {
	if !IsJSON(obj.Key) {
		return dto.ClassifiedItem{}, false
	}
	item := dto.ClassifiedItem{
		Key:          obj.Key,
		Size:         obj.Size,
		LastModified: obj.LastModified,
	}
	if IsBugReport(obj.Key) {
		item.Kind = dto.KindBugReport
		return item, true
	}
	item.Directory = ExtractDirectory(obj.Key)
	if item.Directory == "" {
		return dto.ClassifiedItem{}, false
	}
	item.Kind = dto.KindDiagnostic
	item.Timestamp = c.ExtractTimestamp(obj.Key)
	return item, true
}
