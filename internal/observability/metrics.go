package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	jobRuns      map[string]int64
	jobFailures  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		jobRuns:      make(map[string]int64),
		jobFailures:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordJobRun increments per-job counters for the scheduler.
func (m *Metrics) RecordJobRun(job string, failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobRuns[job]++
	if failed {
		m.jobFailures[job]++
	}
}

// JobStats returns a copy of the scheduler counters.
func (m *Metrics) JobStats() (runs, failures map[string]int64) {
	if m == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	runs = make(map[string]int64, len(m.jobRuns))
	failures = make(map[string]int64, len(m.jobFailures))
	for k, v := range m.jobRuns {
		runs[k] = v
	}
	for k, v := range m.jobFailures {
		failures[k] = v
	}
	return runs, failures
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
