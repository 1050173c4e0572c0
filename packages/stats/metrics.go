package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Latencies are recorded in microseconds, 1us to 60s, 3 significant digits.
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Metrics aggregates request latencies across the files of one invocation.
type Metrics struct {
	mu        sync.Mutex
	total     int64
	errors    int64
	histogram *hdrhistogram.Histogram
	started   time.Time
	stopped   time.Time
}

// Summary is a point-in-time view of the recorded latencies.
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	ErrorCount    int64
	ErrorRate     float64

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
	}
}

// Start marks the beginning of the run. Recording starts the clock if
// Start was never called.
func (m *Metrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = time.Now()
}

// Record adds one request. failed counts toward the error rate; its latency
// is recorded all the same.
func (m *Metrics) Record(duration time.Duration, failed bool) {
	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started.IsZero() {
		m.started = time.Now().Add(-duration)
	}
	m.total++
	if failed {
		m.errors++
	}
	_ = m.histogram.RecordValue(latencyUs)
}

func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var duration time.Duration
	switch {
	case m.started.IsZero():
	case m.stopped.IsZero():
		duration = time.Since(m.started)
	default:
		duration = m.stopped.Sub(m.started)
	}

	s := &Summary{
		Duration:      duration,
		TotalRequests: m.total,
		ErrorCount:    m.errors,
	}
	if m.total == 0 {
		return s
	}

	s.ErrorRate = float64(m.errors) / float64(m.total)
	s.P50 = us(m.histogram.ValueAtQuantile(50))
	s.P95 = us(m.histogram.ValueAtQuantile(95))
	s.P99 = us(m.histogram.ValueAtQuantile(99))
	s.Min = us(m.histogram.Min())
	s.Max = us(m.histogram.Max())
	s.Mean = time.Duration(m.histogram.Mean() * float64(time.Microsecond))
	return s
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
