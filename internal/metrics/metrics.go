// Package metrics defines the Prometheus collectors exported by the daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "glados"

// Stage names used as the "stage" label.
const (
	StageNormalize = "normalize"
	StageAcoustic  = "acoustic"
	StageVocode    = "vocode"
	StageUpsample  = "upsample"
	StageRefine    = "refine"
	StageMix       = "mix"
	StageWrite     = "write"
)

// Utterance outcomes used as the "status" label.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Collector groups the pipeline metrics behind its own registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	stageDuration       *prometheus.HistogramVec
	utterancesTotal     *prometheus.CounterVec
	decoderTruncations  prometheus.Counter
	degenerateSignals   prometheus.Counter
	normalizationGain   prometheus.Histogram
	decoderFramesPerRun prometheus.Histogram
}

// New creates a collector with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Histogram of synthesis stage duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		utterancesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "utterances_total",
				Help:      "Total number of utterances processed",
			},
			[]string{"status"}, // status: success, skipped, error
		),
		decoderTruncations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decoder_truncations_total",
				Help:      "Utterances whose decoder hit the step bound",
			},
		),
		degenerateSignals: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degenerate_signals_total",
				Help:      "Utterances whose base waveform was silent",
			},
		),
		normalizationGain: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "normalization_gain",
				Help:      "Damped peak-normalization gain applied before resampling",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		decoderFramesPerRun: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decoder_frames",
				Help:      "Mel frames produced per utterance",
				Buckets:   []float64{50, 100, 200, 400, 800, 1600, 3000},
			},
		),
	}

	c.registry.MustRegister(
		c.stageDuration,
		c.utterancesTotal,
		c.decoderTruncations,
		c.degenerateSignals,
		c.normalizationGain,
		c.decoderFramesPerRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveStage records how long a stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Time returns a func that records the elapsed time for stage when called.
//
//	defer m.Time(metrics.StageVocode)()
func (c *Collector) Time(stage string) func() {
	start := time.Now()
	return func() { c.ObserveStage(stage, time.Since(start)) }
}

// RecordUtterance counts a finished utterance.
func (c *Collector) RecordUtterance(status string) {
	if c == nil {
		return
	}
	c.utterancesTotal.WithLabelValues(status).Inc()
}

// RecordTruncation counts a decoder run that hit the step bound.
func (c *Collector) RecordTruncation() {
	if c == nil {
		return
	}
	c.decoderTruncations.Inc()
}

// RecordDegenerate counts a silent base waveform.
func (c *Collector) RecordDegenerate() {
	if c == nil {
		return
	}
	c.degenerateSignals.Inc()
}

// ObserveGain records the normalization gain of an utterance.
func (c *Collector) ObserveGain(gain float64) {
	if c == nil {
		return
	}
	c.normalizationGain.Observe(gain)
}

// ObserveFrames records the decoded mel length of an utterance.
func (c *Collector) ObserveFrames(frames int) {
	if c == nil {
		return
	}
	c.decoderFramesPerRun.Observe(float64(frames))
}
