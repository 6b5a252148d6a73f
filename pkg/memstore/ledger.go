package memstore

import (
	"context"
	"time"
)

// FileExists reports whether key is in the file ledger.
func (s *Store) FileExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[key]
	return ok, nil
}

// InsertFile adds key to the file ledger; an existing entry is kept as is.
func (s *Store) InsertFile(_ context.Context, key, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		s.files[key] = hash
	}
	return nil
}

func (s *Store) DirectoryMarkedAt(_ context.Context, dir string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.dirs[dir]
	return at, ok, nil
}

func (s *Store) UpsertDirectory(_ context.Context, dir string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dir] = at
	return nil
}

func (s *Store) ClearFiles(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.files))
	s.files = make(map[string]string)
	return n, nil
}

func (s *Store) ClearDirectories(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.dirs))
	s.dirs = make(map[string]time.Time)
	return n, nil
}
