// Package health tracks the reachability of the services s3ingest depends on.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Status represents the current health status.
type Status string

const (
	// StatusHealthy indicates the service is functioning normally.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is experiencing issues.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown indicates the health status hasn't been determined yet.
	StatusUnknown Status = "unknown"
)

const (
	defaultCheckInterval = 30 * time.Second
	checkTimeout         = 5 * time.Second
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	name                string
	fn                  CheckFunc
	status              Status
	lastCheck           time.Time
	lastError           error
	consecutiveFailures int
}

// CheckInfo is the state of one check.
type CheckInfo struct {
	Name                string    `json:"name"`
	Status              Status    `json:"status"`
	LastCheck           time.Time `json:"last_check"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Info contains current health information.
type Info struct {
	Status Status      `json:"status"`
	Checks []CheckInfo `json:"checks"`
}

// Monitor runs named checks periodically and keeps their last result.
type Monitor struct {
	mu            sync.RWMutex
	checks        map[string]*check
	logger        *slog.Logger
	checkInterval time.Duration
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewMonitor creates a monitor without checks.
func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{
		checks:        make(map[string]*check),
		logger:        logger,
		checkInterval: defaultCheckInterval,
	}
}

// SetInterval changes the period of the background checks. It must be called before Start.
func (m *Monitor) SetInterval(d time.Duration) {
	if d > 0 {
		m.checkInterval = d
	}
}

// Register adds a check. Registering a name twice replaces the check.
func (m *Monitor) Register(name string, fn CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = &check{name: name, fn: fn, status: StatusUnknown}
}

// Start runs every check once, then periodically in the background.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	_ = m.CheckNow(ctx)

	m.wg.Add(1)
	go m.loop(ctx)
}

// Stop stops the health monitoring.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.CheckNow(ctx)
		}
	}
}

// CheckNow runs every check and returns the failures combined.
func (m *Monitor) CheckNow(ctx context.Context) error {
	m.mu.RLock()
	checks := make([]*check, 0, len(m.checks))
	for _, c := range m.checks {
		checks = append(checks, c)
	}
	m.mu.RUnlock()
	sort.Slice(checks, func(i, j int) bool { return checks[i].name < checks[j].name })

	var result *multierror.Error
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.fn(checkCtx)
		cancel()
		m.record(c, err)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return result.ErrorOrNil()
}

func (m *Monitor) record(c *check, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.lastCheck = time.Now()
	if err != nil {
		c.status = StatusUnhealthy
		c.lastError = err
		c.consecutiveFailures++
		m.logger.Debug("Health check failed",
			slog.String("check", c.name),
			slog.String("error", err.Error()),
			slog.Int("consecutive_failures", c.consecutiveFailures))
		return
	}
	if c.status == StatusUnhealthy {
		m.logger.Info("Health restored", slog.String("check", c.name))
	}
	c.status = StatusHealthy
	c.lastError = nil
	c.consecutiveFailures = 0
}

// GetHealthInfo returns current health information. The overall status is
// unhealthy when any check is, unknown while a check never ran.
func (m *Monitor) GetHealthInfo() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{Status: StatusHealthy, Checks: make([]CheckInfo, 0, len(m.checks))}
	for _, c := range m.checks {
		ci := CheckInfo{
			Name:                c.name,
			Status:              c.status,
			LastCheck:           c.lastCheck,
			ConsecutiveFailures: c.consecutiveFailures,
		}
		if c.lastError != nil {
			ci.LastError = c.lastError.Error()
		}
		info.Checks = append(info.Checks, ci)

		switch {
		case c.status == StatusUnhealthy:
			info.Status = StatusUnhealthy
		case c.status == StatusUnknown && info.Status == StatusHealthy:
			info.Status = StatusUnknown
		}
	}
	sort.Slice(info.Checks, func(i, j int) bool { return info.Checks[i].Name < info.Checks[j].Name })
	return info
}

// IsHealthy returns true if every check passed last time it ran.
func (m *Monitor) IsHealthy() bool {
	return m.GetHealthInfo().Status == StatusHealthy
}
