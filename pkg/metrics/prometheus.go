// Package metrics provides Prometheus metrics for the WbW ranking pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Solver outcome label values.
const (
	OutcomeConverged      = "converged"
	OutcomeDidNotConverge = "did_not_converge"
	OutcomeEmptySelection = "empty_selection"
	OutcomeInvalidInput   = "invalid_input"
)

// Manager manages all Prometheus metrics for the ranking pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	prefix           string
	latencyBuckets   []float64
	iterationBuckets []float64
	constLabels      map[string]string
	enabled          bool
	registry         prometheus.Registerer

	// Solver metrics
	solverRuns       *prometheus.CounterVec
	solverIterations prometheus.Histogram
	solverLatency    prometheus.Histogram
	solverPlayers    prometheus.Histogram

	// Sequencer metrics
	sequencerBoundaries      prometheus.Counter
	sequencerSkipped         *prometheus.CounterVec
	sequencerPoints          prometheus.Counter
	sequencerRatingsRejected prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerJobs              *prometheus.CounterVec
	workerProcessingLatency prometheus.Histogram

	// Repository metrics
	repositoryRecords prometheus.Gauge

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wbw",
		subsystem:        "ranking",
		latencyBuckets:   prometheus.ExponentialBuckets(0.1, 2, 16),
		iterationBuckets: []float64{0, 1, 2, 3, 5, 10, 20, 50, 100, 250, 500},
		constLabels:      make(map[string]string),
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.prefix == "" {
		return n
	}
	return m.prefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.solverRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("solver_runs_total"),
		Help:        "Total number of solver runs by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.solverIterations = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("solver_iterations"),
		Help:        "Iterations needed before the ranking order stabilised",
		Buckets:     m.iterationBuckets,
		ConstLabels: labels,
	})

	m.solverLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("solver_latency_milliseconds"),
		Help:        "Wall time of a single solver run in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.solverPlayers = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("solver_players"),
		Help:        "Number of players in the graph handed to the solver",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 12),
		ConstLabels: labels,
	})

	m.sequencerBoundaries = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sequencer_boundaries_total"),
		Help:        "Tournament boundaries crossed by the snapshot sequencer",
		ConstLabels: labels,
	})

	m.sequencerSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sequencer_skipped_boundaries_total"),
		Help:        "Tournament boundaries that produced no rating points, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.sequencerPoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sequencer_points_total"),
		Help:        "Rating/position points emitted by the snapshot sequencer",
		ConstLabels: labels,
	})

	m.sequencerRatingsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sequencer_ratings_rejected_total"),
		Help:        "External ratings that could not be parsed as numbers",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Current number of ranking jobs waiting in the queue",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum number of ranking jobs the queue can hold",
		ConstLabels: labels,
	})

	m.queueEnqueueTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_total"),
		Help:        "Ranking jobs accepted by the queue",
		ConstLabels: labels,
	})

	m.queueDequeueTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeue_total"),
		Help:        "Ranking jobs handed to workers",
		ConstLabels: labels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Rejected enqueue attempts by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Number of running ranking workers",
		ConstLabels: labels,
	})

	m.workerJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_jobs_total"),
		Help:        "Ranking jobs finished by workers, by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Time a worker spends on one ranking job in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.repositoryRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("repository_records"),
		Help:        "Snapshot records held in the in-memory store",
		ConstLabels: labels,
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})
}

// RecordSolverRun counts one solver run with the given outcome.
func (m *Manager) RecordSolverRun(outcome string) {
	if m.enabled {
		m.solverRuns.WithLabelValues(outcome).Inc()
	}
}

// RecordSolverIterations observes the iteration count of a finished solver run.
func (m *Manager) RecordSolverIterations(iterations int) {
	if m.enabled {
		m.solverIterations.Observe(float64(iterations))
	}
}

// RecordSolverLatency observes the solver wall time in milliseconds.
func (m *Manager) RecordSolverLatency(latencyMs float64) {
	if m.enabled {
		m.solverLatency.Observe(latencyMs)
	}
}

// RecordSolverPlayers observes the graph size handed to the solver.
func (m *Manager) RecordSolverPlayers(players int) {
	if m.enabled {
		m.solverPlayers.Observe(float64(players))
	}
}

// RecordSequencerBoundary counts a crossed tournament boundary.
func (m *Manager) RecordSequencerBoundary() {
	if m.enabled {
		m.sequencerBoundaries.Inc()
	}
}

// RecordSequencerSkipped counts a boundary that produced no points.
func (m *Manager) RecordSequencerSkipped(reason string) {
	if m.enabled {
		m.sequencerSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordSequencerPoints adds n emitted points.
func (m *Manager) RecordSequencerPoints(n int) {
	if m.enabled && n > 0 {
		m.sequencerPoints.Add(float64(n))
	}
}

// RecordSequencerRatingRejected counts an unparseable external rating.
func (m *Manager) RecordSequencerRatingRejected() {
	if m.enabled {
		m.sequencerRatingsRejected.Inc()
	}
}

// UpdateQueueSize sets the queue depth gauge.
func (m *Manager) UpdateQueueSize(size int) {
	if m.enabled {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func (m *Manager) UpdateQueueCapacity(capacity int) {
	if m.enabled {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted job.
func (m *Manager) RecordQueueEnqueue() {
	if m.enabled {
		m.queueEnqueueTotal.Inc()
	}
}

// RecordQueueDequeue counts a job handed to a worker.
func (m *Manager) RecordQueueDequeue() {
	if m.enabled {
		m.queueDequeueTotal.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected enqueue.
func (m *Manager) RecordQueueEnqueueError(reason string) {
	if m.enabled {
		m.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerActiveCount sets the running worker gauge.
func (m *Manager) UpdateWorkerActiveCount(count int) {
	if m.enabled {
		m.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerJob counts a finished job by outcome.
func (m *Manager) RecordWorkerJob(outcome string) {
	if m.enabled {
		m.workerJobs.WithLabelValues(outcome).Inc()
	}
}

// RecordWorkerProcessingLatency observes per-job latency in milliseconds.
func (m *Manager) RecordWorkerProcessingLatency(latencyMs float64) {
	if m.enabled {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// UpdateRepositoryRecords sets the number of stored snapshot records.
func (m *Manager) UpdateRepositoryRecords(count int) {
	if m.enabled {
		m.repositoryRecords.Set(float64(count))
	}
}

// RecordErrorByComponent counts an error raised by a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Package-level helpers operate on the global manager.

func RecordSolverRun(outcome string)                { globalManager.RecordSolverRun(outcome) }
func RecordSolverIterations(iterations int)         { globalManager.RecordSolverIterations(iterations) }
func RecordSolverLatency(latencyMs float64)         { globalManager.RecordSolverLatency(latencyMs) }
func RecordSolverPlayers(players int)               { globalManager.RecordSolverPlayers(players) }
func RecordSequencerBoundary()                      { globalManager.RecordSequencerBoundary() }
func RecordSequencerSkipped(reason string)          { globalManager.RecordSequencerSkipped(reason) }
func RecordSequencerPoints(n int)                   { globalManager.RecordSequencerPoints(n) }
func RecordSequencerRatingRejected()                { globalManager.RecordSequencerRatingRejected() }
func UpdateQueueSize(size int)                      { globalManager.UpdateQueueSize(size) }
func UpdateQueueCapacity(capacity int)              { globalManager.UpdateQueueCapacity(capacity) }
func RecordQueueEnqueue()                           { globalManager.RecordQueueEnqueue() }
func RecordQueueDequeue()                           { globalManager.RecordQueueDequeue() }
func RecordQueueEnqueueError(reason string)         { globalManager.RecordQueueEnqueueError(reason) }
func UpdateWorkerActiveCount(count int)             { globalManager.UpdateWorkerActiveCount(count) }
func RecordWorkerJob(outcome string)                { globalManager.RecordWorkerJob(outcome) }
func RecordWorkerProcessingLatency(ms float64)      { globalManager.RecordWorkerProcessingLatency(ms) }
func UpdateRepositoryRecords(count int)             { globalManager.UpdateRepositoryRecords(count) }
func RecordErrorByComponent(component, kind string) { globalManager.RecordErrorByComponent(component, kind) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
