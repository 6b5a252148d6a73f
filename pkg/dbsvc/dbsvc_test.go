package dbsvc

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/database"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique", &pq.Error{Code: "23505"}, true},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"foreign key", &pq.Error{Code: "23503"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestProgressRowConversion(t *testing.T) {
	start := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Minute)
	p := dto.Progress{
		ScanID:         "6f1c1b0e-6a55-4b4e-9a43-0c3f7a2b9e11",
		Status:         dto.StatusCompleted,
		TotalFiles:     3,
		ProcessedFiles: 2,
		ErrorFiles:     1,
		CurrentBatch:   1,
		TotalBatches:   1,
		StartTime:      start,
		LastUpdate:     end,
		EndTime:        &end,
		RecentErrors:   []dto.ItemError{{Key: "a.json", Error: "bad", Time: end}},
	}

	params, err := progressParams(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"file":"a.json","error":"bad","time":"2025-07-01T10:01:00Z"}]`, string(params.RecentErrors))

	row := database.ScanState{
		ID:             1,
		ScanID:         params.ScanID,
		Status:         params.Status,
		TotalFiles:     params.TotalFiles,
		ProcessedFiles: params.ProcessedFiles,
		ErrorFiles:     params.ErrorFiles,
		CurrentBatch:   params.CurrentBatch,
		TotalBatches:   params.TotalBatches,
		StartTime:      params.StartTime,
		LastUpdate:     params.LastUpdate,
		EndTime:        params.EndTime,
		RecentErrors:   params.RecentErrors,
	}
	got, err := progressFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProgressParamsRejectsBadScanID(t *testing.T) {
	_, err := progressParams(dto.Progress{ScanID: "not-a-uuid"})
	require.Error(t, err)
}

func TestProgressFromRowWithoutScan(t *testing.T) {
	_, err := progressFromRow(database.ScanState{ID: 1, Status: "idle", RecentErrors: []byte("[]")})
	require.ErrorIs(t, err, scanner.ErrNoScan)
}
