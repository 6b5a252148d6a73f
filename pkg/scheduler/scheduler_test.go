package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

type fakeEngine struct {
	batches  atomic.Int32
	starts   atomic.Int32
	startErr error
	status   dto.ScanStatus
	hasScan  bool
}

func (f *fakeEngine) RunBackground(context.Context) error {
	f.batches.Add(1)
	return nil
}

func (f *fakeEngine) Start(context.Context) (scanner.StartResult, error) {
	f.starts.Add(1)
	return scanner.StartResult{}, f.startErr
}

func (f *fakeEngine) Progress(context.Context) (dto.Snapshot, bool, error) {
	if !f.hasScan {
		return dto.Snapshot{}, false, nil
	}
	return dto.Progress{ScanID: "s", Status: f.status}.Snapshot(false), true, nil
}

func enabled() config.ScanConfig {
	return config.ScanConfig{EnableBackground: true, BackgroundSchedule: "@every 1h"}
}

func TestArmDisarm(t *testing.T) {
	s := NewScheduler(enabled())
	s.Bind(&fakeEngine{})

	require.NoError(t, s.Arm())
	require.NoError(t, s.Arm())
	assert.True(t, s.Armed())
	assert.Len(t, s.cron.Entries(), 1, "arming twice schedules one job")

	s.Disarm()
	s.Disarm()
	assert.False(t, s.Armed())
	assert.Empty(t, s.cron.Entries())
}

func TestArmDisabled(t *testing.T) {
	s := NewScheduler(config.ScanConfig{BackgroundSchedule: "@every 1h"})
	require.NoError(t, s.Arm())
	assert.False(t, s.Armed())
}

func TestArmInvalidSchedule(t *testing.T) {
	s := NewScheduler(config.ScanConfig{EnableBackground: true, BackgroundSchedule: "every now and then"})
	require.Error(t, s.Arm())
	assert.False(t, s.Armed())
}

func TestBatchJobRunsEngine(t *testing.T) {
	e := &fakeEngine{}
	s := NewScheduler(enabled())
	s.Bind(e)
	require.NoError(t, s.Arm())

	s.cron.Entries()[0].Job.Run()
	assert.Equal(t, int32(1), e.batches.Load())
}

func TestStartRearmsRunnableScan(t *testing.T) {
	tests := []struct {
		name    string
		engine  *fakeEngine
		wantArm bool
	}{
		{"no scan", &fakeEngine{}, false},
		{"ready", &fakeEngine{hasScan: true, status: dto.StatusReady}, true},
		{"processing", &fakeEngine{hasScan: true, status: dto.StatusProcessing}, true},
		{"completed", &fakeEngine{hasScan: true, status: dto.StatusCompleted}, false},
		{"error", &fakeEngine{hasScan: true, status: dto.StatusError}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(enabled())
			s.Bind(tt.engine)
			require.NoError(t, s.Start(context.Background()))
			defer s.Stop()
			assert.Equal(t, tt.wantArm, s.Armed())
		})
	}
}

func TestStartWithoutEngine(t *testing.T) {
	s := NewScheduler(enabled())
	require.Error(t, s.Start(context.Background()))
}

func TestRescanJob(t *testing.T) {
	cfg := enabled()
	cfg.RescanSchedule = "0 3 * * *"
	e := &fakeEngine{startErr: scanner.ErrScanInProgress}
	s := NewScheduler(cfg)
	s.Bind(e)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	entry := s.cron.Entry(s.rescan)
	require.True(t, entry.Valid())
	entry.Job.Run()
	e.startErr = errors.New("listing failed")
	entry.Job.Run()
	assert.Equal(t, int32(2), e.starts.Load())
}
