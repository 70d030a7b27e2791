package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks request counts, timings and named counters for a service
type ServiceMetrics struct {
	serviceName         string
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	totalProcessingTime time.Duration
	minProcessingTime   time.Duration
	maxProcessingTime   time.Duration
	lastUpdated         time.Time
	customCounters      map[string]int64
	mutex               sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics
type MetricsSnapshot struct {
	ServiceName           string           `json:"service_name"`
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	SuccessRate           float64          `json:"success_rate"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	MinProcessingTime     time.Duration    `json:"min_processing_time"`
	MaxProcessingTime     time.Duration    `json:"max_processing_time"`
	LastUpdated           time.Time        `json:"last_updated"`
	Counters              map[string]int64 `json:"counters"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName:    serviceName,
		lastUpdated:    time.Now(),
		customCounters: make(map[string]int64),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime
	if m.minProcessingTime == 0 || processingTime < m.minProcessingTime {
		m.minProcessingTime = processingTime
	}
	if processingTime > m.maxProcessingTime {
		m.maxProcessingTime = processingTime
	}

	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}

	m.lastUpdated = time.Now()
}

// IncrementCustomCounter increments a named counter
func (m *ServiceMetrics) IncrementCustomCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.customCounters[key]++
	m.lastUpdated = time.Now()
}

// Counter returns the value of a named counter
func (m *ServiceMetrics) Counter(key string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.customCounters[key]
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.customCounters))
	for k, v := range m.customCounters {
		counters[k] = v
	}

	snapshot := MetricsSnapshot{
		ServiceName:        m.serviceName,
		TotalRequests:      m.totalRequests,
		SuccessfulRequests: m.successfulRequests,
		FailedRequests:     m.failedRequests,
		MinProcessingTime:  m.minProcessingTime,
		MaxProcessingTime:  m.maxProcessingTime,
		LastUpdated:        m.lastUpdated,
		Counters:           counters,
	}
	if m.totalRequests > 0 {
		snapshot.SuccessRate = float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
		snapshot.AverageProcessingTime = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)
	}
	return snapshot
}

// LogSummary logs a metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"max_processing_time":     snapshot.MaxProcessingTime,
		"counters":                snapshot.Counters,
	}).Info("Service metrics summary")
}

// Reset resets all metrics to zero
func (m *ServiceMetrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests = 0
	m.successfulRequests = 0
	m.failedRequests = 0
	m.totalProcessingTime = 0
	m.minProcessingTime = 0
	m.maxProcessingTime = 0
	m.lastUpdated = time.Now()
	m.customCounters = make(map[string]int64)

	logrus.WithField("service_name", m.serviceName).Info("Service metrics reset")
}
