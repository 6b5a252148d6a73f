// Package ledger records which files and site directories were already ingested.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheCapacity = 100000
)

// Store is the durable side of the ledgers. Both ledgers are append-only
// apart from the Clear operations.
type Store interface {
	FileExists(ctx context.Context, key string) (bool, error)
	// InsertFile must not fail when key is already present.
	InsertFile(ctx context.Context, key, hash string) error
	// DirectoryMarkedAt returns when dir was last marked, ok=false when never.
	DirectoryMarkedAt(ctx context.Context, dir string) (time.Time, bool, error)
	// UpsertDirectory marks dir, refreshing the mark time when present.
	UpsertDirectory(ctx context.Context, dir string, at time.Time) error
	ClearFiles(ctx context.Context) (int64, error)
	ClearDirectories(ctx context.Context) (int64, error)
}

// Scope selects the ledgers affected by Clear.
type Scope int

const (
	ScopeFiles Scope = 1 << iota
	ScopeDirectories

	ScopeAll = ScopeFiles | ScopeDirectories
)

// ClearResult counts the removed entries.
type ClearResult struct {
	Files       int64 `json:"files"`
	Directories int64 `json:"directories"`
}

// Tracker answers membership questions with a cache of positive answers in front of the store.
// Negative answers are never cached: another process may mark a key at any time.
type Tracker struct {
	store        Store
	recheckAfter time.Duration
	cache        *ttlcache.Cache[string, struct{}]
	now          func() time.Time
	log          *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRecheckAfter lets a directory be processed again once its mark is older than d.
// Zero keeps directories suppressed forever.
func WithRecheckAfter(d time.Duration) Option {
	return func(t *Tracker) {
		t.recheckAfter = d
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithCacheTTL sets how long a positive answer is trusted.
func WithCacheTTL(d time.Duration) Option {
	return func(t *Tracker) {
		t.cache = newCache(d)
	}
}

func newCache(ttl time.Duration) *ttlcache.Cache[string, struct{}] {
	return ttlcache.New(
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithCapacity[string, struct{}](defaultCacheCapacity),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		cache: newCache(defaultCacheTTL),
		now:   time.Now,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLogger sets the logger
func (t *Tracker) SetLogger(log *slog.Logger) {
	t.log = log
}

// ContentHash is the fingerprint stored next to a processed file.
func ContentHash(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

func fileCacheKey(key string) string { return "f:" + key }
func dirCacheKey(dir string) string  { return "d:" + dir }

// IsFileProcessed reports whether key is in the file ledger.
func (t *Tracker) IsFileProcessed(ctx context.Context, key string) (bool, error) {
	if t.cache.Get(fileCacheKey(key)) != nil {
		return true, nil
	}
	ok, err := t.store.FileExists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check file ledger: %w", err)
	}
	if ok {
		t.cache.Set(fileCacheKey(key), struct{}{}, ttlcache.DefaultTTL)
	}
	return ok, nil
}

// MarkFileProcessed adds key to the file ledger. Marking twice is harmless.
func (t *Tracker) MarkFileProcessed(ctx context.Context, key, hash string) error {
	if err := t.store.InsertFile(ctx, key, hash); err != nil {
		return fmt.Errorf("failed to mark file %s: %w", key, err)
	}
	t.cache.Set(fileCacheKey(key), struct{}{}, ttlcache.DefaultTTL)
	return nil
}

// IsDirectoryProcessed reports whether dir is suppressed under the re-check policy.
func (t *Tracker) IsDirectoryProcessed(ctx context.Context, dir string) (bool, error) {
	if t.recheckAfter == 0 && t.cache.Get(dirCacheKey(dir)) != nil {
		return true, nil
	}
	markedAt, ok, err := t.store.DirectoryMarkedAt(ctx, dir)
	if err != nil {
		return false, fmt.Errorf("failed to check directory ledger: %w", err)
	}
	if !ok {
		return false, nil
	}
	if t.recheckAfter == 0 {
		t.cache.Set(dirCacheKey(dir), struct{}{}, ttlcache.DefaultTTL)
		return true, nil
	}
	if t.now().Sub(markedAt) >= t.recheckAfter {
		t.log.Debug("Directory due for re-check", slog.String("directory", dir), slog.Time("marked_at", markedAt))
		return false, nil
	}
	return true, nil
}

// MarkDirectoryProcessed adds dir to the directory ledger.
func (t *Tracker) MarkDirectoryProcessed(ctx context.Context, dir string) error {
	if err := t.store.UpsertDirectory(ctx, dir, t.now()); err != nil {
		return fmt.Errorf("failed to mark directory %s: %w", dir, err)
	}
	if t.recheckAfter == 0 {
		t.cache.Set(dirCacheKey(dir), struct{}{}, ttlcache.DefaultTTL)
	}
	return nil
}

// Clear empties the selected ledgers. Both are attempted even if one fails.
func (t *Tracker) Clear(ctx context.Context, scope Scope) (ClearResult, error) {
	var res ClearResult
	var errs *multierror.Error

	if scope&ScopeFiles != 0 {
		n, err := t.store.ClearFiles(ctx)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to clear file ledger: %w", err))
		}
		res.Files = n
	}
	if scope&ScopeDirectories != 0 {
		n, err := t.store.ClearDirectories(ctx)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to clear directory ledger: %w", err))
		}
		res.Directories = n
	}
	t.cache.DeleteAll()

	t.log.Info("Ledgers cleared",
		slog.Int64("files", res.Files),
		slog.Int64("directories", res.Directories))
	return res, errs.ErrorOrNil()
}
