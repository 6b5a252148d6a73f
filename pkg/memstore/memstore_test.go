package memstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/memstore"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

func TestListBugReportsKeyset(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for i := range 5 {
		_, err := s.InsertBugReport(ctx, dto.BugReport{SiteKey: "s", ReportID: fmt.Sprintf("r%d", i)})
		require.NoError(t, err)
	}
	closed := dto.ReportClosed
	_, err := s.UpdateBugReport(ctx, 2, dto.BugReportUpdate{Status: &closed})
	require.NoError(t, err)

	page, err := s.ListBugReports(ctx, dto.BugReportFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Reports, 2)
	assert.Equal(t, int64(5), page.Reports[0].ID, "newest first")
	assert.True(t, page.HasNext)
	assert.Equal(t, int64(4), page.NextAfter)
	assert.Equal(t, int64(5), page.Total)

	page, err = s.ListBugReports(ctx, dto.BugReportFilter{Limit: 2, After: page.NextAfter})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(page.Reports))

	page, err = s.ListBugReports(ctx, dto.BugReportFilter{Status: dto.ReportOpen})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4, 3, 1}, ids(page.Reports))
	assert.False(t, page.HasNext)
	assert.Equal(t, int64(4), page.Total)
}

func ids(rs []dto.BugReport) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestUpdateBugReport(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id, err := s.InsertBugReport(ctx, dto.BugReport{SiteKey: "s", ReportID: "r"})
	require.NoError(t, err)

	notes := "looking into it"
	r, err := s.UpdateBugReport(ctx, id, dto.BugReportUpdate{AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, dto.ReportOpen, r.Status)
	assert.Equal(t, notes, r.AdminNotes)

	_, err = s.UpdateBugReport(ctx, 99, dto.BugReportUpdate{AdminNotes: &notes})
	assert.ErrorIs(t, err, dto.ErrNotFound)

	_, err = s.InsertBugReport(ctx, dto.BugReport{SiteKey: "s", ReportID: "r"})
	assert.ErrorIs(t, err, ingest.ErrDuplicate)
}

func TestCommitChecksHeadAndScan(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, scanner.ErrNoScan)

	queue := []dto.ClassifiedItem{{Key: "a.json"}, {Key: "b.json"}}
	require.NoError(t, s.Begin(ctx, dto.Progress{ScanID: "scan-1", Status: dto.StatusReady}, queue))

	inc := func(p *dto.Progress) error { p.ProcessedFiles++; return nil }
	_, _, err = s.Commit(ctx, "scan-1", "b.json", inc)
	require.ErrorIs(t, err, scanner.ErrQueueConflict)
	_, _, err = s.Commit(ctx, "scan-0", "a.json", inc)
	require.ErrorIs(t, err, scanner.ErrQueueConflict)

	p, left, err := s.Commit(ctx, "scan-1", "a.json", inc)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	assert.Equal(t, 1, p.ProcessedFiles)

	_, _, err = s.Commit(ctx, "scan-1", "b.json", func(*dto.Progress) error { return scanner.ErrNotRunnable })
	require.ErrorIs(t, err, scanner.ErrNotRunnable)
	n, err := s.QueueLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a failing update leaves the queue untouched")
}

func TestProgressIsCopied(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Begin(ctx, dto.Progress{ScanID: "x"}, nil))

	p, err := s.Mutate(ctx, func(p *dto.Progress) error {
		p.RecordError(dto.ItemError{Key: "k"}, 50)
		return nil
	})
	require.NoError(t, err)
	p.RecentErrors[0].Key = "changed"

	stored, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", stored.RecentErrors[0].Key)
}

func TestTryLock(t *testing.T) {
	s := memstore.New()
	release, err := s.TryLock(context.Background())
	require.NoError(t, err)
	_, err = s.TryLock(context.Background())
	require.ErrorIs(t, err, scanner.ErrBatchInProgress)
	release()
	release2, err := s.TryLock(context.Background())
	require.NoError(t, err)
	release2()
}
