package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/memstore"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

const site = "abcdefabcdefabcdefabcdefabcdefab"

const (
	reportBody     = `{"siteKey":"s1","timestamp":"2025-06-24T17:04:36Z","report":{"message":"broken"}}`
	diagnosticBody = `{"environment":{"wp_version":"6.5"},"clientInfo":{"userAgent":"WordPress/6.5; https://example.org"}}`
)

type fakeObjects struct {
	mu      sync.Mutex
	objects []dto.S3Object
	bodies  map[string]string
	listErr map[string]error
	getErr  map[string]error
	gets    []string
	onGet   func()
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		bodies:  map[string]string{},
		listErr: map[string]error{},
		getErr:  map[string]error{},
	}
}

func (f *fakeObjects) put(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, dto.S3Object{Key: key, Size: int64(len(body))})
	f.bodies[key] = body
}

func (f *fakeObjects) ListObjects(_ context.Context, prefix string, maxKeys int) ([]dto.S3Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[prefix]; err != nil {
		return nil, err
	}
	var out []dto.S3Object
	for _, o := range f.objects {
		if strings.HasPrefix(o.Key, prefix) && (maxKeys <= 0 || len(out) < maxKeys) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.gets = append(f.gets, key)
	onGet := f.onGet
	err := f.getErr[key]
	body := f.bodies[key]
	f.mu.Unlock()
	if onGet != nil {
		onGet()
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (f *fakeObjects) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.gets...)
}

type recordingTrigger struct {
	mu     sync.Mutex
	armed  bool
	arms   int
	disarm int
}

func (t *recordingTrigger) Arm() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.arms++
	return nil
}

func (t *recordingTrigger) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.disarm++
}

func (t *recordingTrigger) isArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 24, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	objects *fakeObjects
	store   *memstore.Store
	repo    scanner.StateRepository
	tracker *ledger.Tracker
	trigger *recordingTrigger
	clock   *clock
	engine  *scanner.Engine
}

func newHarness(t *testing.T, cfg config.ScanConfig) *harness {
	t.Helper()
	h := &harness{
		objects: newFakeObjects(),
		store:   memstore.New(),
		trigger: &recordingTrigger{},
		clock:   newClock(),
	}
	h.repo = h.store
	h.tracker = ledger.NewTracker(h.store)
	h.build(cfg)
	return h
}

func (h *harness) build(cfg config.ScanConfig) {
	h.engine = scanner.NewEngine(cfg, h.objects, h.repo, h.tracker, ingest.NewProcessor(h.store),
		scanner.WithTrigger(h.trigger),
		scanner.WithClock(h.clock.now))
}

func diagKey(dir string, ts int) string {
	return fmt.Sprintf("%s/%d.json", dir, ts)
}

func TestStartBuildsQueue(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/report1.json", reportBody)
	h.objects.put(diagKey(site, 100), diagnosticBody)
	h.objects.put(diagKey(site, 200), diagnosticBody)
	h.objects.put("notes.txt", "hello")

	res, err := h.engine.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 1, res.TotalBatches)
	assert.Equal(t, dto.StatusReady, res.Progress.Status)
	assert.NotEmpty(t, res.Progress.ScanID)
	assert.True(t, h.trigger.isArmed())

	head, ok, err := h.store.Peek(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bug-reports/report1.json", head.Key)

	_, _, err = h.store.Commit(ctx, res.Progress.ScanID, head.Key, func(*dto.Progress) error { return nil })
	require.NoError(t, err)
	next, ok, err := h.store.Peek(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diagKey(site, 200), next.Key)
	assert.Equal(t, site, next.Directory)
	assert.Equal(t, 2, next.FilesInDirectory)
}

func TestStartKeepsLatestFilePerDirectory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	for _, ts := range []int{10, 30, 20} {
		h.objects.put(diagKey(site, ts), diagnosticBody)
	}

	res, err := h.engine.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalFiles)

	head, ok, err := h.store.Peek(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(30), head.Timestamp)
}

func TestStartSkipsAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/old.json", reportBody)
	h.objects.put("bug-reports/new.json", reportBody)
	h.objects.put(diagKey(site, 1), diagnosticBody)
	h.objects.put(diagKey("othersite", 1), diagnosticBody)
	require.NoError(t, h.tracker.MarkFileProcessed(ctx, "bug-reports/old.json", ""))
	require.NoError(t, h.tracker.MarkDirectoryProcessed(ctx, site))

	res, err := h.engine.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
}

func TestStartWithNothingToDoCompletes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("readme.md", "x")

	res, err := h.engine.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalFiles)
	assert.Equal(t, dto.StatusCompleted, res.Progress.Status)
	assert.NotNil(t, res.Progress.EndTime)
	assert.False(t, h.trigger.isArmed())

	_, ok, err := h.engine.LastScan(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStartDiscoveryFailures(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, config.ScanConfig{})
	h.objects.listErr[""] = errors.New("503")
	_, err := h.engine.Start(ctx)
	require.ErrorIs(t, err, scanner.ErrDiscovery)
	_, ok, err := h.engine.Progress(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "nothing persisted after a failed discovery")

	h = newHarness(t, config.ScanConfig{RootPrefix: "data/"})
	h.objects.put(diagKey("data", 1), diagnosticBody)
	h.objects.put("bug-reports/r.json", reportBody)
	h.objects.listErr["bug-reports/"] = errors.New("403")
	res, err := h.engine.Start(ctx)
	require.NoError(t, err, "bug report listing failures are tolerated")
	assert.Equal(t, 1, res.TotalFiles)
}

func TestStartRejectedWhileScanRunning(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)
	_, err = h.engine.Start(ctx)
	assert.ErrorIs(t, err, scanner.ErrScanInProgress)
}

func TestProcessNextBatchDrainsSmallQueue(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{BatchSize: 10})
	h.objects.put("bug-reports/a.json", reportBody)
	h.objects.put(diagKey(site, 1), diagnosticBody)
	h.objects.put(diagKey("site2", 1), diagnosticBody)

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	s, err := h.engine.ProcessNextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
	assert.Equal(t, 3, s.ProcessedFiles)
	assert.Equal(t, 1, s.ProcessedBugReports)
	assert.Equal(t, 2, s.ProcessedDiagnosticFiles)
	assert.Equal(t, 1, s.CurrentBatch)
	assert.Equal(t, float64(100), s.Percentage)
	assert.NotNil(t, s.EndTime)
	assert.False(t, h.trigger.isArmed())

	n, err := h.store.QueueLen(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, h.store.BugReports(), 1)
	assert.Len(t, h.store.Diagnostics(), 2)

	ok, err := h.tracker.IsDirectoryProcessed(ctx, site)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.engine.ProcessNextBatch(ctx)
	assert.ErrorIs(t, err, scanner.ErrNotRunnable)
}

func TestInvalidPayloadIsCountedAndDropped(t *testing.T) {
	for _, payload := range []string{"not json", diagnosticBody + " trailing text", "{} {}"} {
		t.Run(payload, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, config.ScanConfig{})
			h.objects.put(diagKey(site, 1), payload)

			_, err := h.engine.Start(ctx)
			require.NoError(t, err)
			s, err := h.engine.ProcessNextBatch(ctx)
			require.NoError(t, err)

			assert.Equal(t, 1, s.ErrorFiles)
			assert.Zero(t, s.ProcessedFiles)
			require.Len(t, s.RecentErrors, 1)
			assert.Equal(t, diagKey(site, 1), s.RecentErrors[0].Key)
			assert.Equal(t, dto.StatusCompleted, s.Status)

			dls, err := h.engine.DeadLetters(ctx, s.ScanID, 0)
			require.NoError(t, err)
			require.Len(t, dls, 1)
			assert.Equal(t, site, dls[0].Directory)

			ok, err := h.tracker.IsFileProcessed(ctx, diagKey(site, 1))
			require.NoError(t, err)
			assert.False(t, ok, "failed items are not marked")
			ok, err = h.tracker.IsDirectoryProcessed(ctx, site)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestQueueConservationAcrossBatches(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{BatchSize: 2})
	for i := range 5 {
		h.objects.put(diagKey(fmt.Sprintf("site%d", i), 1), diagnosticBody)
	}
	h.objects.getErr[diagKey("site3", 1)] = errors.New("fetch failed")

	res, err := h.engine.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, res.TotalBatches)

	var s dto.Snapshot
	for s.Status != dto.StatusCompleted {
		s, err = h.engine.ProcessNextBatch(ctx)
		require.NoError(t, err)

		n, err := h.store.QueueLen(ctx)
		require.NoError(t, err)
		assert.Equal(t, s.TotalFiles, n+s.ProcessedFiles+s.ErrorFiles+s.SkippedFiles)
		require.LessOrEqual(t, s.CurrentBatch, 3)
	}
	assert.Equal(t, 4, s.ProcessedFiles)
	assert.Equal(t, 1, s.ErrorFiles)
	assert.Equal(t, 3, s.CurrentBatch)
	assert.Zero(t, s.RemainingBatches)
}

func TestBatchStopsAtTimeBudget(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{MaxExecutionTime: 25 * time.Second})
	for i := range 3 {
		h.objects.put(diagKey(fmt.Sprintf("site%d", i), 1), diagnosticBody)
	}
	h.objects.onGet = func() { h.clock.advance(20 * time.Second) }

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)
	s, err := h.engine.ProcessNextBatch(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, s.ProcessedFiles, "third item is not picked up past the budget")
	assert.Equal(t, dto.StatusProcessing, s.Status)
	assert.Equal(t, 1, s.CurrentBatch)
	assert.Equal(t, 1, s.RemainingFiles)
}

func TestItemAlreadyInLedgerIsSkipped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)
	h.objects.put("bug-reports/b.json", reportBody)

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, h.tracker.MarkFileProcessed(ctx, "bug-reports/a.json", ""))

	s, err := h.engine.ProcessNextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SkippedFiles)
	assert.Equal(t, 1, s.ProcessedFiles)
	assert.Equal(t, []string{"bug-reports/b.json"}, h.objects.fetched())
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)

	_, err := h.engine.Cancel(ctx)
	require.ErrorIs(t, err, scanner.ErrNoScan)

	_, err = h.engine.Start(ctx)
	require.NoError(t, err)
	s, err := h.engine.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCancelled, s.Status)
	assert.NotNil(t, s.EndTime)
	assert.False(t, h.trigger.isArmed())

	_, err = h.engine.ProcessNextBatch(ctx)
	require.ErrorIs(t, err, scanner.ErrNotRunnable)
	_, err = h.engine.Cancel(ctx)
	require.ErrorIs(t, err, scanner.ErrInvalidTransition)

	res, err := h.engine.Start(ctx)
	require.NoError(t, err, "a cancelled scan can be restarted")
	assert.Equal(t, 1, res.TotalFiles)
}

func TestPauseAndResume(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	_, err = h.engine.Resume(ctx)
	require.ErrorIs(t, err, scanner.ErrInvalidTransition, "nothing to resume")

	s, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusPaused, s.Status)
	assert.True(t, s.Paused)

	_, err = h.engine.ProcessNextBatch(ctx)
	require.ErrorIs(t, err, scanner.ErrPaused)
	require.NoError(t, h.engine.RunBackground(ctx))
	assert.Empty(t, h.objects.fetched())

	persisted, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusReady, persisted.Status, "pause is not persisted")

	s, err = h.engine.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusReady, s.Status)

	s, err = h.engine.ProcessNextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
}

type flakyRepo struct {
	*memstore.Store
	failCommit bool
}

func (r *flakyRepo) Commit(ctx context.Context, scanID, key string, fn func(*dto.Progress) error) (dto.Progress, int, error) {
	if r.failCommit {
		return dto.Progress{}, 0, errors.New("connection reset")
	}
	return r.Store.Commit(ctx, scanID, key, fn)
}

func TestRepositoryFailureMovesToErrorAndResumes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	repo := &flakyRepo{Store: h.store, failCommit: true}
	h.repo = repo
	h.build(config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)
	h.objects.put("bug-reports/b.json", reportBody)

	_, err := h.engine.Start(ctx)
	require.NoError(t, err)
	_, err = h.engine.ProcessNextBatch(ctx)
	require.Error(t, err)

	s, ok, err := h.engine.Progress(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dto.StatusError, s.Status)
	assert.Contains(t, s.LastError, "connection reset")

	_, err = h.engine.ProcessNextBatch(ctx)
	require.ErrorIs(t, err, scanner.ErrNotRunnable)

	repo.failCommit = false
	_, err = h.engine.Resume(ctx)
	require.NoError(t, err)
	s, err = h.engine.ProcessNextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
	assert.Equal(t, 1, s.ProcessedFiles, "a was stored before the failure and is skipped")
	assert.Equal(t, 1, s.SkippedFiles)
}

func TestBatchLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)
	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	release, err := h.store.TryLock(ctx)
	require.NoError(t, err)

	_, err = h.engine.ProcessNextBatch(ctx)
	require.ErrorIs(t, err, scanner.ErrBatchInProgress)
	require.NoError(t, h.engine.RunBackground(ctx), "background runs tolerate a busy lock")

	release()
	require.NoError(t, h.engine.RunBackground(ctx))
	s, _, err := h.engine.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
}

func TestConcurrentBatchesNeverDoubleProcess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{BatchSize: 3})
	for i := range 20 {
		h.objects.put(diagKey(fmt.Sprintf("site%02d", i), 1), diagnosticBody)
	}
	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, _ = h.engine.ProcessNextBatch(ctx)
			}
		}()
	}
	wg.Wait()

	s, _, err := h.engine.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
	assert.Equal(t, 20, s.ProcessedFiles)
	assert.Len(t, h.objects.fetched(), 20)
	assert.Len(t, h.store.Diagnostics(), 20)
}

func TestCancelledCallerDoesNotCutSharedBatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{BatchSize: 3})
	for i := range 3 {
		h.objects.put(diagKey(fmt.Sprintf("site%d", i), 1), diagnosticBody)
	}
	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	fetching := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	h.objects.onGet = func() {
		once.Do(func() {
			close(fetching)
			<-unblock
		})
	}

	leaderCtx, cancel := context.WithCancel(ctx)
	leaderErr := make(chan error, 1)
	go func() {
		_, err := h.engine.ProcessNextBatch(leaderCtx)
		leaderErr <- err
	}()
	<-fetching

	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)
	close(unblock)

	require.Eventually(t, func() bool {
		s, _, err := h.engine.Progress(ctx)
		return err == nil && s.Status == dto.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
	s, _, err := h.engine.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.ProcessedFiles)
	assert.Equal(t, 1, s.CurrentBatch)
	assert.Len(t, h.objects.fetched(), 3)
}

func TestDrain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{BatchSize: 1})
	for i := range 3 {
		h.objects.put(diagKey(fmt.Sprintf("site%d", i), 1), diagnosticBody)
	}
	_, err := h.engine.Start(ctx)
	require.NoError(t, err)

	var batches int
	s, err := h.engine.Drain(ctx, func(dto.Snapshot) { batches++ })
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, s.Status)
	assert.Equal(t, 3, batches)
}

func TestRunFullScan(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ScanConfig{})
	h.objects.put("bug-reports/a.json", reportBody)
	h.objects.put(diagKey(site, 1), diagnosticBody)
	h.objects.put(diagKey(site, 2), diagnosticBody)
	h.objects.put("notes.txt", "x")
	h.objects.put("broken/1.json", "{")
	h.objects.put("bug-reports/done.json", reportBody)
	require.NoError(t, h.tracker.MarkFileProcessed(ctx, "bug-reports/done.json", ""))

	res, err := h.engine.RunFullScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.FullScanResult{
		Processed:          3,
		Skipped:            2,
		Errors:             1,
		NewBugReports:      1,
		NewDiagnosticFiles: 2,
		TotalObjects:       6,
	}, res)

	_, ok, err := h.engine.LastScan(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err = h.engine.RunFullScan(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Processed, "second run only skips or fails")
}

func TestProgressWithoutScan(t *testing.T) {
	h := newHarness(t, config.ScanConfig{})
	_, ok, err := h.engine.Progress(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
