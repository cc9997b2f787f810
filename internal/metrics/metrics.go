// Package metrics provides Prometheus metrics for opactx runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"opactx/internal/transform"
)

const (
	namespace = "opactx"
	unknownOp = "unknown"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Collector holds all Prometheus metrics for opactx.
type Collector struct {
	// Stage metrics
	StagesTotal   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Transform metrics
	TransformsTotal   *prometheus.CounterVec
	TransformDuration *prometheus.HistogramVec

	// Source metrics
	SourceFetches *prometheus.CounterVec
	SourceBytes   *prometheus.GaugeVec

	// Build metrics
	BuildsTotal     *prometheus.CounterVec
	LastBuild       prometheus.Gauge
	BundleSizeBytes prometheus.Gauge
}

// NewWithRegistry creates a collector whose metrics are registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		StagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stages_total",
				Help:      "Total number of pipeline stages run, by outcome",
			},
			[]string{"command", "stage", "status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command", "stage"},
		),
		TransformsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transforms_total",
				Help:      "Total number of transform steps applied, by operation and outcome",
			},
			[]string{"op", "status"},
		),
		TransformDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transform_duration_seconds",
				Help:      "Transform step duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"op"},
		),
		SourceFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Total number of source fetches, by type and outcome",
			},
			[]string{"type", "status"},
		),
		SourceBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_payload_bytes",
				Help:      "Size of the last fetched payload per source, as compact JSON",
			},
			[]string{"source"},
		),
		BuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Total number of builds, by outcome",
			},
			[]string{"status"},
		),
		LastBuild: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_build_timestamp",
				Help:      "Unix timestamp of the last successful build",
			},
		),
		BundleSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bundle_data_bytes",
				Help:      "Size of data.json in the last written bundle",
			},
		),
	}
}

// ObserveStage records a finished stage.
func (c *Collector) ObserveStage(command, stage, status string, d time.Duration) {
	c.StagesTotal.WithLabelValues(command, stage, status).Inc()
	c.StageDuration.WithLabelValues(command, stage).Observe(d.Seconds())
}

// ObserveStep records a finished transform step. Its signature matches
// transform.WithStepHook. Steps that never resolved to an operation share
// one label value.
func (c *Collector) ObserveStep(ev transform.StepEvent) {
	op := unknownOp
	if ev.Kind != 0 {
		op = ev.Kind.String()
	}

	c.TransformsTotal.WithLabelValues(op, statusOf(ev.Err)).Inc()
	c.TransformDuration.WithLabelValues(op).Observe(ev.Duration.Seconds())
}

// ObserveSource records a source fetch.
func (c *Collector) ObserveSource(name, typ string, size int, err error) {
	c.SourceFetches.WithLabelValues(typ, statusOf(err)).Inc()

	if err == nil {
		c.SourceBytes.WithLabelValues(name).Set(float64(size))
	}
}

// ObserveBuild records the outcome of a build. size is the data.json size,
// or zero when nothing was written.
func (c *Collector) ObserveBuild(ok bool, size int, at time.Time) {
	if !ok {
		c.BuildsTotal.WithLabelValues(StatusFailed).Inc()
		return
	}

	c.BuildsTotal.WithLabelValues(StatusSuccess).Inc()
	c.LastBuild.Set(float64(at.Unix()))

	if size > 0 {
		c.BundleSizeBytes.Set(float64(size))
	}
}

func statusOf(err error) string {
	if err != nil {
		return StatusFailed
	}

	return StatusSuccess
}
