package services

import (
	"context"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/sirupsen/logrus"
)

// Beacon metric counters
const (
	CounterBeaconQueued    = "beacon_queued"
	CounterBeaconDelivered = "beacon_delivered"
	CounterBeaconFailed    = "beacon_failed"
	CounterBeaconDropped   = "beacon_dropped"
)

// VisitReporter delivers one external-visit report
type VisitReporter interface {
	LogExternalVisit(ctx context.Context, ipoID, credential, requestID string) error
}

// BeaconReport is one queued external-visit report
type BeaconReport struct {
	IPOID      string
	Credential string
	RequestID  string
}

type beaconJob struct {
	ctx    context.Context
	report BeaconReport
}

// Beacon sends external-visit reports on background workers. Delivery is best
// effort: a full queue drops the report and failures are only counted.
type Beacon struct {
	reporter VisitReporter
	queue    chan beaconJob
	timeout  time.Duration
	metrics  *shared.ServiceMetrics
	logger   *logrus.Entry

	mutex   sync.RWMutex
	closed  bool
	workers sync.WaitGroup
}

// NewBeacon starts cfg.Workers delivery workers
func NewBeacon(reporter VisitReporter, cfg shared.BeaconConfig, metrics *shared.ServiceMetrics) *Beacon {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if metrics == nil {
		metrics = shared.NewServiceMetrics("Beacon")
	}

	b := &Beacon{
		reporter: reporter,
		queue:    make(chan beaconJob, cfg.QueueSize),
		timeout:  cfg.Timeout,
		metrics:  metrics,
		logger:   logrus.WithField("component", "Beacon"),
	}

	for i := 0; i < cfg.Workers; i++ {
		b.workers.Add(1)
		go b.run()
	}
	return b
}

// Send queues a report without blocking. The report keeps ctx's values but
// not its cancellation, so it outlives the request that triggered it.
func (b *Beacon) Send(ctx context.Context, report BeaconReport) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.closed {
		b.metrics.IncrementCustomCounter(CounterBeaconDropped)
		return false
	}

	select {
	case b.queue <- beaconJob{ctx: context.WithoutCancel(ctx), report: report}:
		b.metrics.IncrementCustomCounter(CounterBeaconQueued)
		return true
	default:
		b.metrics.IncrementCustomCounter(CounterBeaconDropped)
		b.logger.WithField("ipo_id", report.IPOID).Warn("Beacon queue full, dropping report")
		return false
	}
}

// Close stops accepting reports and waits for queued ones until ctx is done
func (b *Beacon) Close(ctx context.Context) error {
	b.mutex.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns delivery counters
func (b *Beacon) Metrics() *shared.ServiceMetrics {
	return b.metrics
}

func (b *Beacon) run() {
	defer b.workers.Done()
	for job := range b.queue {
		b.deliver(job)
	}
}

func (b *Beacon) deliver(job beaconJob) {
	startTime := time.Now()
	ctx := job.ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	err := b.reporter.LogExternalVisit(ctx, job.report.IPOID, job.report.Credential, job.report.RequestID)
	b.metrics.RecordRequest(err == nil, time.Since(startTime))
	if err != nil {
		b.metrics.IncrementCustomCounter(CounterBeaconFailed)
		b.logger.WithFields(logrus.Fields{
			"ipo_id":     job.report.IPOID,
			"request_id": job.report.RequestID,
		}).WithError(err).Debug("Beacon delivery failed")
		return
	}
	b.metrics.IncrementCustomCounter(CounterBeaconDelivered)
}
