package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/ledger"
)

type mapStore struct {
	mu         sync.Mutex
	files      map[string]string
	dirs       map[string]time.Time
	fileChecks int
	failClear  bool
}

func newMapStore() *mapStore {
	return &mapStore{files: map[string]string{}, dirs: map[string]time.Time{}}
}

func (s *mapStore) FileExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileChecks++
	_, ok := s.files[key]
	return ok, nil
}

func (s *mapStore) InsertFile(_ context.Context, key, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		s.files[key] = hash
	}
	return nil
}

func (s *mapStore) DirectoryMarkedAt(_ context.Context, dir string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.dirs[dir]
	return at, ok, nil
}

func (s *mapStore) UpsertDirectory(_ context.Context, dir string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dir] = at
	return nil
}

func (s *mapStore) ClearFiles(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failClear {
		return 0, errors.New("boom")
	}
	n := int64(len(s.files))
	s.files = map[string]string{}
	return n, nil
}

func (s *mapStore) ClearDirectories(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.dirs))
	s.dirs = map[string]time.Time{}
	return n, nil
}

func TestMarkFileProcessedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	tr := ledger.NewTracker(store)

	ok, err := tr.IsFileProcessed(ctx, "site/1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.MarkFileProcessed(ctx, "site/1.json", "aaaa"))
	ok, err = tr.IsFileProcessed(ctx, "site/1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tr.MarkFileProcessed(ctx, "site/1.json", "bbbb"))
	ok, err = tr.IsFileProcessed(ctx, "site/1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Len(t, store.files, 1)
	assert.Equal(t, "aaaa", store.files["site/1.json"], "first mark wins")
}

func TestPositiveAnswersAreCached(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.files["k.json"] = "h"
	tr := ledger.NewTracker(store)

	for range 3 {
		ok, err := tr.IsFileProcessed(ctx, "k.json")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, store.fileChecks)

	for range 2 {
		ok, err := tr.IsFileProcessed(ctx, "other.json")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, store.fileChecks, "negative answers always hit the store")
}

func TestDirectoryPermanentByDefault(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := ledger.NewTracker(newMapStore(), ledger.WithClock(func() time.Time { return now }))

	ok, err := tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.MarkDirectoryProcessed(ctx, "site"))
	now = now.Add(365 * 24 * time.Hour)

	ok, err = tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirectoryRecheckAfter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := ledger.NewTracker(newMapStore(),
		ledger.WithRecheckAfter(24*time.Hour),
		ledger.WithClock(func() time.Time { return now }))

	require.NoError(t, tr.MarkDirectoryProcessed(ctx, "site"))

	now = now.Add(23 * time.Hour)
	ok, err := tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	ok, err = tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.False(t, ok, "mark is old enough for a re-check")

	require.NoError(t, tr.MarkDirectoryProcessed(ctx, "site"))
	ok, err = tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok, "marking again refreshes the mark")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	tr := ledger.NewTracker(store)
	require.NoError(t, tr.MarkFileProcessed(ctx, "a.json", ""))
	require.NoError(t, tr.MarkFileProcessed(ctx, "b.json", ""))
	require.NoError(t, tr.MarkDirectoryProcessed(ctx, "site"))

	res, err := tr.Clear(ctx, ledger.ScopeFiles)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClearResult{Files: 2}, res)

	ok, err := tr.IsFileProcessed(ctx, "a.json")
	require.NoError(t, err)
	assert.False(t, ok, "cache is purged with the ledger")

	ok, err = tr.IsDirectoryProcessed(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok, "directories untouched by a files-only clear")

	res, err = tr.Clear(ctx, ledger.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Directories)
}

func TestClearAggregatesErrors(t *testing.T) {
	store := newMapStore()
	store.failClear = true
	store.dirs["site"] = time.Now()
	tr := ledger.NewTracker(store)

	res, err := tr.Clear(context.Background(), ledger.ScopeAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file ledger")
	assert.Equal(t, int64(1), res.Directories, "directories are cleared even when files fail")
}

func TestContentHash(t *testing.T) {
	a := ledger.ContentHash([]byte(`{"a":1}`))
	assert.Len(t, a, 16)
	assert.Equal(t, a, ledger.ContentHash([]byte(`{"a":1}`)))
	assert.NotEqual(t, a, ledger.ContentHash([]byte(`{"a":2}`)))
}
