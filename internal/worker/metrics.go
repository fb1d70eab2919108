package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const metricsJobName = "content_pipeline_worker"

var (
	// registry keeps worker metrics out of prometheus.DefaultRegistry so the
	// pushgateway only receives what this worker produced.
	registry = prometheus.NewRegistry()

	jobsClaimed = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_worker_jobs_claimed_total",
			Help: "Total number of jobs claimed by this worker, partitioned by job type.",
		},
		[]string{"job_type"},
	)
	jobsFinished = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_worker_jobs_finished_total",
			Help: "Total number of jobs finished by this worker, partitioned by job type and outcome.",
		},
		[]string{"job_type", "outcome"},
	)
	jobDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_pipeline_worker_job_duration_seconds",
			Help:    "Wall time of job executions.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"job_type"},
	)
	contentGenerated = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_worker_content_generated_total",
			Help: "Total number of content items produced by jobs.",
		},
		[]string{"job_type"},
	)
	stalledJobs = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_pipeline_worker_stalled_jobs_total",
			Help: "Jobs found with a stale heartbeat, partitioned by what happened to them.",
		},
		[]string{"action"},
	)
	jobsInFlight = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "content_pipeline_worker_jobs_in_flight",
			Help: "Jobs currently executing on this worker.",
		},
	)
)

// Registry exposes the worker registry for the /metrics handler.
func Registry() *prometheus.Registry {
	return registry
}

// MetricsPusher sends the worker registry to a Prometheus Pushgateway.
type MetricsPusher struct {
	pusher *push.Pusher
	logger *zap.Logger
}

// NewMetricsPusher prepares a pusher grouped by hostname and pid. The first
// push checks connectivity; a failure is only logged.
func NewMetricsPusher(pushgatewayURL string, logger *zap.Logger) *MetricsPusher {
	logger = logger.Named("MetricsPusher")
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
		logger.Warn("Could not get hostname", zap.Error(err))
	}
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	logger.Info("Initializing Pushgateway pusher",
		zap.String("job", metricsJobName),
		zap.String("instance", instanceID),
		zap.String("url", pushgatewayURL),
	)
	p := &MetricsPusher{
		pusher: push.New(pushgatewayURL, metricsJobName).Gatherer(registry).Grouping("instance", instanceID),
		logger: logger,
	}
	if err := p.pusher.Push(); err != nil {
		logger.Warn("Initial push to Pushgateway failed", zap.Error(err))
	}
	return p
}

// Run pushes every interval until ctx is done.
func (p *MetricsPusher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.pusher.Push(); err != nil {
				p.logger.Error("Failed to push metrics", zap.Error(err))
			}
		}
	}
}

// Cleanup pushes a final snapshot and deletes the group from the Pushgateway.
func (p *MetricsPusher) Cleanup() {
	if err := p.pusher.Push(); err != nil {
		p.logger.Warn("Final metrics push failed", zap.Error(err))
	}
	if err := p.pusher.Delete(); err != nil {
		p.logger.Error("Failed to delete metrics group from Pushgateway", zap.Error(err))
		return
	}
	p.logger.Info("Metrics group deleted from Pushgateway")
}
