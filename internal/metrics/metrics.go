// Package metrics records publish runs as Prometheus metrics and writes them
// in the text format read by the node exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Publish holds the metrics of one publish run. Each run uses its own
// registry so the textfile only reflects that run.
type Publish struct {
	reg *prometheus.Registry

	packagesTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	remaining     prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewPublish creates and registers the publish metrics.
func NewPublish() *Publish {
	m := &Publish{
		reg: prometheus.NewRegistry(),
		packagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cargo_mono_publish_packages_total",
				Help: "Number of packages handled by the last publish run, by outcome.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cargo_mono_publish_duration_seconds",
				Help:    "Time taken by cargo publish per package.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		remaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cargo_mono_publish_remaining_packages",
				Help: "Number of packages of the publish order not yet published.",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cargo_mono_publish_last_success_timestamp_seconds",
				Help: "Unix time of the last publish run that completed without error.",
			},
		),
	}
	m.reg.MustRegister(m.packagesTotal, m.duration, m.remaining, m.lastSuccess)
	return m
}

// Observe records one package outcome. d is only recorded for packages that
// were actually published.
func (m *Publish) Observe(status string, d time.Duration) {
	m.packagesTotal.WithLabelValues(status).Inc()
	if status == "published" {
		m.duration.Observe(d.Seconds())
	}
}

// SetRemaining sets the number of packages still to publish.
func (m *Publish) SetRemaining(n int) {
	m.remaining.Set(float64(n))
}

// MarkSuccess records the completion time of a successful run.
func (m *Publish) MarkSuccess(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// Registry returns the registry holding the run's metrics.
func (m *Publish) Registry() *prometheus.Registry { return m.reg }

// WriteFile writes the metrics to path atomically in the text exposition
// format.
func (m *Publish) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
