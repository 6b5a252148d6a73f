package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/dto"
)

func diag(dir, key string, ts int64) dto.ClassifiedItem {
	return dto.ClassifiedItem{Key: key, Kind: dto.KindDiagnostic, Directory: dir, Timestamp: ts}
}

func TestQueueBuilderKeepsLatestPerDirectory(t *testing.T) {
	b := classify.NewQueueBuilder()
	b.Add(diag(siteHash, siteHash+"/10.json", 10))
	b.Add(diag(siteHash, siteHash+"/30.json", 30))
	b.Add(diag(siteHash, siteHash+"/20.json", 20))

	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, siteHash+"/30.json", items[0].Key)
	assert.Equal(t, 3, items[0].FilesInDirectory)
}

func TestQueueBuilderOrdering(t *testing.T) {
	b := classify.NewQueueBuilder()
	b.Add(diag("site-b", "site-b/1.json", 1))
	b.Add(dto.ClassifiedItem{Key: "bug-reports/r1.json", Kind: dto.KindBugReport})
	b.Add(diag("site-a", "site-a/5.json", 5))
	b.Add(dto.ClassifiedItem{Key: "bug-reports/r2.json", Kind: dto.KindBugReport})
	b.Add(diag("site-b", "site-b/2.json", 2))

	items := b.Items()
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
	}
	assert.Equal(t, []string{
		"bug-reports/r1.json",
		"bug-reports/r2.json",
		"site-b/2.json",
		"site-a/5.json",
	}, keys)
	assert.Equal(t, 2, b.BugReports())
	assert.Equal(t, 2, b.Directories())
}

func TestQueueBuilderTieKeepsFirst(t *testing.T) {
	b := classify.NewQueueBuilder()
	b.Add(diag("site", "site/a.json", 7))
	b.Add(diag("site", "site/b.json", 7))

	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "site/a.json", items[0].Key)
}

func TestQueueBuilderZeroTimestampStillQueued(t *testing.T) {
	b := classify.NewQueueBuilder()
	b.Add(diag(siteHash, siteHash+"/0.json", 0))

	require.Len(t, b.Items(), 1)
}
