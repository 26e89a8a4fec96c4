package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	transcriptions   *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	fallbackDepth    prometheus.Histogram
	chargeOutcomes   *prometheus.CounterVec
	chargeRetries    prometheus.Counter
	billingRows      *prometheus.CounterVec
	schedulerRuns    *prometheus.CounterVec
	schedulerLatency *prometheus.HistogramVec
}

// New registers the application instruments on the given registerer.
func New(registerer prometheus.Registerer, serviceName string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "scriba"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	transcriptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriba_transcriptions_total",
		Help:        "Transcription attempts by provider and outcome.",
		ConstLabels: constLabels,
	}, []string{"provider", "status"})
	providerLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "scriba_provider_latency_seconds",
		Help:        "Wall time spent inside a provider adapter call.",
		Buckets:     []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		ConstLabels: constLabels,
	}, []string{"provider"})
	fallbackDepth := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "scriba_fallback_depth",
		Help:        "Number of providers tried before a transcription settled.",
		Buckets:     []float64{1, 2, 3, 4, 5},
		ConstLabels: constLabels,
	})
	chargeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriba_quota_charges_total",
		Help:        "Quota charge attempts by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	chargeRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "scriba_quota_charge_retries_total",
		Help:        "Quota charge transaction retries on contention.",
		ConstLabels: constLabels,
	})
	billingRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriba_billing_rows_total",
		Help:        "Monthly billing rows by result (created, skipped, failed).",
		ConstLabels: constLabels,
	}, []string{"result"})
	schedulerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriba_scheduler_job_runs_total",
		Help:        "Scheduler job runs by name and outcome.",
		ConstLabels: constLabels,
	}, []string{"job", "outcome"})
	schedulerLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "scriba_scheduler_job_duration_seconds",
		Help:        "Scheduler job latency.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		ConstLabels: constLabels,
	}, []string{"job"})

	registerer.MustRegister(
		transcriptions,
		providerLatency,
		fallbackDepth,
		chargeOutcomes,
		chargeRetries,
		billingRows,
		schedulerRuns,
		schedulerLatency,
	)

	return &Metrics{
		transcriptions:   transcriptions,
		providerLatency:  providerLatency,
		fallbackDepth:    fallbackDepth,
		chargeOutcomes:   chargeOutcomes,
		chargeRetries:    chargeRetries,
		billingRows:      billingRows,
		schedulerRuns:    schedulerRuns,
		schedulerLatency: schedulerLatency,
	}
}

// RecordTranscription counts one adapter attempt.
func (m *Metrics) RecordTranscription(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transcriptions.WithLabelValues(provider, status).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordFallbackDepth records how many providers a request walked through.
func (m *Metrics) RecordFallbackDepth(depth int) {
	if m == nil || depth <= 0 {
		return
	}
	m.fallbackDepth.Observe(float64(depth))
}

// RecordChargeOutcome counts one quota charge by outcome label.
func (m *Metrics) RecordChargeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.chargeOutcomes.WithLabelValues(outcome).Inc()
}

// RecordChargeRetry counts one transaction retry inside a charge.
func (m *Metrics) RecordChargeRetry() {
	if m == nil {
		return
	}
	m.chargeRetries.Inc()
}

// RecordBillingRow counts one aggregated billing row by result.
func (m *Metrics) RecordBillingRow(result string) {
	if m == nil {
		return
	}
	m.billingRows.WithLabelValues(result).Inc()
}

// RecordSchedulerRun records one scheduler job execution.
func (m *Metrics) RecordSchedulerRun(job, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.schedulerRuns.WithLabelValues(job, outcome).Inc()
	m.schedulerLatency.WithLabelValues(job).Observe(elapsed.Seconds())
}
