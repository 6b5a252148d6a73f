package scanner

import (
	"context"
	"time"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

// StateRepository persists the scan aggregate: one progress record and its queue.
// Every method is atomic on its own. Implementations return ErrNoScan from the
// methods reading progress when Begin was never called.
type StateRepository interface {
	// Load returns the current progress.
	Load(ctx context.Context) (dto.Progress, error)
	// Begin replaces any previous progress and queue.
	Begin(ctx context.Context, p dto.Progress, queue []dto.ClassifiedItem) error
	// Peek returns the queue head; ok is false when the queue is empty.
	Peek(ctx context.Context) (item dto.ClassifiedItem, ok bool, err error)
	// Commit removes the head, which must be key, and applies fn to the progress of scanID
	// in the same unit of work. It returns ErrQueueConflict when the head or the scan differ.
	// When fn fails nothing is written. remaining is the queue length after the pop.
	Commit(ctx context.Context, scanID, key string, fn func(*dto.Progress) error) (p dto.Progress, remaining int, err error)
	// Mutate applies fn to the progress as a read-modify-write. When fn fails nothing is written.
	Mutate(ctx context.Context, fn func(*dto.Progress) error) (dto.Progress, error)
	// QueueLen is the number of items left.
	QueueLen(ctx context.Context) (int, error)
	// TryLock takes the batch lock without waiting. It returns ErrBatchInProgress when held.
	TryLock(ctx context.Context) (release func(), err error)
	MarkLastScan(ctx context.Context, at time.Time) error
	// LastScan returns the time of the last completed scan; ok is false when none.
	LastScan(ctx context.Context) (at time.Time, ok bool, err error)
	AddDeadLetter(ctx context.Context, dl dto.DeadLetter) error
	// ListDeadLetters returns the newest entries first. An empty scanID lists every scan.
	ListDeadLetters(ctx context.Context, scanID string, limit int) ([]dto.DeadLetter, error)
}
