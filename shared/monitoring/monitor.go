package monitoring

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor tracks the outcome of pipeline runs for the health endpoints.
// It is safe for concurrent use.
type Monitor struct {
	mu               sync.RWMutex
	logger           *zap.Logger
	startedAt        time.Time
	lastRunSuccess   bool
	lastRunTime      time.Time
	lastDuration     time.Duration
	lastError        string
	lastSummary      string
	runs             int64
	successes        int64
	partialFailures  int64
	criticalFailures int64
}

func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{logger: logger, startedAt: time.Now()}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.runs++
	m.successes++
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastDuration = duration
	m.lastSummary = summary
	m.lastError = ""
	m.mu.Unlock()

	m.logger.Info("run completed", zap.String("summary", summary), zap.Duration("duration", duration))
}

// RecordPartialFailure does not change the health status.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialFailures++
	m.lastError = err.Error()
	m.mu.Unlock()

	m.logger.Warn("partial failure", zap.Error(err), zap.Duration("duration", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.runs++
	m.criticalFailures++
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastDuration = duration
	m.lastError = err.Error()
	m.mu.Unlock()

	m.logger.Error("critical failure", zap.Error(err), zap.Duration("duration", duration))
}

// IsHealthy is true until a run fails critically, and again after the next
// successful run.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthyLocked()
}

func (m *Monitor) healthyLocked() bool {
	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summaryLocked()
}

func (m *Monitor) summaryLocked() string {
	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}

type Status struct {
	Healthy             bool       `json:"healthy"`
	Summary             string     `json:"summary"`
	StartedAt           time.Time  `json:"started_at"`
	UptimeSeconds       float64    `json:"uptime_seconds"`
	LastRunAt           *time.Time `json:"last_run_at,omitempty"`
	LastRunSummary      string     `json:"last_run_summary,omitempty"`
	LastDurationSeconds float64    `json:"last_duration_seconds"`
	LastError           string     `json:"last_error,omitempty"`
	Runs                int64      `json:"runs"`
	Successes           int64      `json:"successes"`
	PartialFailures     int64      `json:"partial_failures"`
	CriticalFailures    int64      `json:"critical_failures"`
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		Healthy:             m.healthyLocked(),
		Summary:             m.summaryLocked(),
		StartedAt:           m.startedAt,
		UptimeSeconds:       time.Since(m.startedAt).Round(time.Second).Seconds(),
		LastRunSummary:      m.lastSummary,
		LastDurationSeconds: m.lastDuration.Seconds(),
		LastError:           m.lastError,
		Runs:                m.runs,
		Successes:           m.successes,
		PartialFailures:     m.partialFailures,
		CriticalFailures:    m.criticalFailures,
	}
	if !m.lastRunTime.IsZero() {
		at := m.lastRunTime
		s.LastRunAt = &at
	}
	return s
}
