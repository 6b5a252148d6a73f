package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

func cloneProgress(p dto.Progress) dto.Progress {
	p.RecentErrors = slices.Clone(p.RecentErrors)
	if p.RecentErrors == nil {
		p.RecentErrors = []dto.ItemError{}
	}
	if p.EndTime != nil {
		end := *p.EndTime
		p.EndTime = &end
	}
	return p
}

func (s *Store) Load(_ context.Context) (dto.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return dto.Progress{}, scanner.ErrNoScan
	}
	return cloneProgress(*s.progress), nil
}

func (s *Store) Begin(_ context.Context, p dto.Progress, queue []dto.ClassifiedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = cloneProgress(p)
	s.progress = &p
	s.queue = slices.Clone(queue)
	return nil
}

func (s *Store) Peek(_ context.Context) (dto.ClassifiedItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return dto.ClassifiedItem{}, false, nil
	}
	return s.queue[0], true, nil
}

func (s *Store) Commit(_ context.Context, scanID, key string, fn func(*dto.Progress) error) (dto.Progress, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return dto.Progress{}, 0, scanner.ErrNoScan
	}
	if s.progress.ScanID != scanID || len(s.queue) == 0 || s.queue[0].Key != key {
		return dto.Progress{}, 0, scanner.ErrQueueConflict
	}
	next := cloneProgress(*s.progress)
	if err := fn(&next); err != nil {
		return dto.Progress{}, 0, err
	}
	s.queue = s.queue[1:]
	s.progress = &next
	return cloneProgress(next), len(s.queue), nil
}

func (s *Store) Mutate(_ context.Context, fn func(*dto.Progress) error) (dto.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return dto.Progress{}, scanner.ErrNoScan
	}
	next := cloneProgress(*s.progress)
	if err := fn(&next); err != nil {
		return dto.Progress{}, err
	}
	s.progress = &next
	return cloneProgress(next), nil
}

func (s *Store) QueueLen(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue), nil
}

// TryLock is a non-blocking process-wide batch lock.
func (s *Store) TryLock(_ context.Context) (func(), error) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if s.locked {
		return nil, scanner.ErrBatchInProgress
	}
	s.locked = true
	return func() {
		s.lockMu.Lock()
		s.locked = false
		s.lockMu.Unlock()
	}, nil
}

func (s *Store) MarkLastScan(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = &at
	return nil
}

func (s *Store) LastScan(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastScan == nil {
		return time.Time{}, false, nil
	}
	return *s.lastScan, true, nil
}

func (s *Store) AddDeadLetter(_ context.Context, dl dto.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dl.ID = s.newID()
	s.deadLetters = append(s.deadLetters, dl)
	return nil
}

func (s *Store) ListDeadLetters(_ context.Context, scanID string, limit int) ([]dto.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []dto.DeadLetter{}
	for i := len(s.deadLetters) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		dl := s.deadLetters[i]
		if scanID != "" && dl.ScanID != scanID {
			continue
		}
		out = append(out, dl)
	}
	return out, nil
}
