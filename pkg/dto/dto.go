// Package dto provides data transfer objects shared by the ingestion pipeline
package dto

import "time"

// S3Object is the structure to store the S3 object metadata returned by a listing.
type S3Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastmodified"`
}

// ItemKind tells how a queued object is ingested.
type ItemKind string

const (
	// KindBugReport is a user submitted bug report.
	KindBugReport ItemKind = "bug_report"
	// KindDiagnostic is a diagnostic (telemetry) file of a monitored site.
	KindDiagnostic ItemKind = "diagnostic"
)

// ClassifiedItem is a listed object that survived classification and deduplication.
type ClassifiedItem struct {
	Key          string    `json:"key"`
	Kind         ItemKind  `json:"kind"`
	Directory    string    `json:"directory,omitempty"`
	Timestamp    int64     `json:"timestamp"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	// FilesInDirectory is the number of diagnostic files the directory held when the queue was built.
	FilesInDirectory int `json:"files_in_directory,omitempty"`
}

// FullScanResult is the outcome of a single-shot full scan.
type FullScanResult struct {
	Processed          int `json:"processed"`
	Skipped            int `json:"skipped"`
	Errors             int `json:"errors"`
	NewBugReports      int `json:"new_bug_reports"`
	NewDiagnosticFiles int `json:"new_diagnostic_files"`
	TotalObjects       int `json:"total_objects"`
}

// ConnectionResult is returned to callers of the connection test.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeadLetter is an item that failed during a batch and was dropped from the queue.
type DeadLetter struct {
	ID        int64     `json:"id"`
	ScanID    string    `json:"scan_id"`
	Key       string    `json:"key"`
	Kind      ItemKind  `json:"kind"`
	Directory string    `json:"directory,omitempty"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}
