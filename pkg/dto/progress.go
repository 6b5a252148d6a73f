package dto

import (
	"fmt"
	"math"
	"time"
)

// ScanStatus is the persisted state of a batch scan.
type ScanStatus string

const (
	StatusIdle       ScanStatus = "idle"
	StatusReady      ScanStatus = "ready"
	StatusProcessing ScanStatus = "processing"
	StatusPaused     ScanStatus = "paused"
	StatusCompleted  ScanStatus = "completed"
	StatusCancelled  ScanStatus = "cancelled"
	StatusError      ScanStatus = "error"
)

// Terminal reports whether no further batch can run without a new start.
func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Runnable reports whether a batch may be processed in this state.
func (s ScanStatus) Runnable() bool {
	return s == StatusReady || s == StatusProcessing
}

// ItemError is one entry of the recent errors ring buffer.
type ItemError struct {
	Key   string    `json:"file"`
	Error string    `json:"error"`
	Time  time.Time `json:"time"`
}

// Progress is the single mutable record describing the current scan.
type Progress struct {
	ScanID                   string      `json:"scan_id"`
	Status                   ScanStatus  `json:"status"`
	TotalFiles               int         `json:"total_files"`
	ProcessedFiles           int         `json:"processed_files"`
	ProcessedBugReports      int         `json:"processed_bug_reports"`
	ProcessedDiagnosticFiles int         `json:"processed_diagnostic_files"`
	SkippedFiles             int         `json:"skipped_files"`
	ErrorFiles               int         `json:"error_files"`
	CurrentBatch             int         `json:"current_batch"`
	TotalBatches             int         `json:"total_batches"`
	StartTime                time.Time   `json:"start_time"`
	LastUpdate               time.Time   `json:"last_update"`
	EndTime                  *time.Time  `json:"end_time,omitempty"`
	RecentErrors             []ItemError `json:"recent_errors"`
	// LastError holds the reason of a move to StatusError.
	LastError string `json:"last_error,omitempty"`
}

// NewProgress returns the progress of a freshly discovered scan.
func NewProgress(scanID string, totalFiles, batchSize int, now time.Time) Progress {
	return Progress{
		ScanID:       scanID,
		Status:       StatusReady,
		TotalFiles:   totalFiles,
		TotalBatches: TotalBatches(totalFiles, batchSize),
		StartTime:    now,
		LastUpdate:   now,
		RecentErrors: []ItemError{},
	}
}

// TotalBatches is ceil(totalFiles/batchSize).
func TotalBatches(totalFiles, batchSize int) int {
	if batchSize <= 0 || totalFiles <= 0 {
		return 0
	}
	return (totalFiles + batchSize - 1) / batchSize
}

// Handled is the number of queue items already consumed.
func (p Progress) Handled() int {
	return p.ProcessedFiles + p.ErrorFiles + p.SkippedFiles
}

// RecordError appends e and evicts the oldest entries beyond limit.
func (p *Progress) RecordError(e ItemError, limit int) {
	p.RecentErrors = append(p.RecentErrors, e)
	if limit > 0 && len(p.RecentErrors) > limit {
		p.RecentErrors = append([]ItemError(nil), p.RecentErrors[len(p.RecentErrors)-limit:]...)
	}
}

// Snapshot is Progress plus the fields derived on read.
type Snapshot struct {
	Progress
	Paused           bool    `json:"paused"`
	Percentage       float64 `json:"percentage"`
	RemainingFiles   int     `json:"remaining_files"`
	RemainingBatches int     `json:"remaining_batches"`
	Duration         string  `json:"duration,omitempty"`
}

// Snapshot computes the derived view of p.
func (p Progress) Snapshot(paused bool) Snapshot {
	s := Snapshot{
		Progress:         p,
		Paused:           paused,
		RemainingFiles:   max(p.TotalFiles-p.Handled(), 0),
		RemainingBatches: max(p.TotalBatches-p.CurrentBatch, 0),
	}
	if p.TotalFiles > 0 {
		s.Percentage = math.Round(float64(p.Handled())/float64(p.TotalFiles)*10000) / 100
	}
	if p.EndTime != nil {
		s.Duration = FormatDuration(p.EndTime.Sub(p.StartTime))
	}
	return s
}

// FormatDuration renders d as "N seconds", "N minutes" or "H hours M minutes".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%d seconds", secs)
	case secs < 3600:
		return fmt.Sprintf("%d minutes", secs/60)
	default:
		return fmt.Sprintf("%d hours %d minutes", secs/3600, (secs%3600)/60)
	}
}
