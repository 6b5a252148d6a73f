package scanner

import "errors"

var (
	// ErrScanInProgress is returned by Start while a scan is neither finished nor cancelled.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrNotRunnable is returned when a batch is requested outside Ready/Processing.
	ErrNotRunnable = errors.New("scan is not runnable")
	// ErrInvalidTransition is returned for a state change the current status does not allow.
	ErrInvalidTransition = errors.New("invalid scan state transition")
	// ErrNoScan is returned when no scan was ever started.
	ErrNoScan = errors.New("no scan found")
	// ErrPaused is returned when a batch is requested while the scan is paused.
	ErrPaused = errors.New("scan is paused")
	// ErrBatchInProgress is returned by StateRepository.TryLock when another caller holds the batch lock.
	ErrBatchInProgress = errors.New("another batch is in progress")
	// ErrQueueConflict is returned by StateRepository.Commit when the head or scan id moved.
	ErrQueueConflict = errors.New("scan queue changed concurrently")
	// ErrDiscovery wraps listing failures during scan discovery.
	ErrDiscovery = errors.New("failed to discover objects")
)

func isNoScan(err error) bool {
	return errors.Is(err, ErrNoScan)
}
