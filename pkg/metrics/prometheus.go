package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	linesDecoded      prometheus.Counter
	decodeErrors      *prometheus.CounterVec
	signalsRegistered prometheus.Counter
	samplesAppended   *prometheus.CounterVec
	lastValue         *prometheus.GaugeVec
	errorsTotal       *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		linesDecoded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "serialscope_lines_decoded_total",
				Help: "Total number of lines decoded from the stream",
			},
		),
		decodeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serialscope_decode_errors_total",
				Help: "Total number of lines rejected by the decoder",
			},
			[]string{"kind"},
		),
		signalsRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "serialscope_signals_registered_total",
				Help: "Total number of dynamically registered signals",
			},
		),
		samplesAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serialscope_samples_appended_total",
				Help: "Total number of samples appended to the store",
			},
			[]string{"signal"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "serialscope_last_value",
				Help: "Last recorded value for a signal",
			},
			[]string{"signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serialscope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serialscope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordLineDecoded counts one successfully decoded line.
func (r *Recorder) RecordLineDecoded() {
	r.linesDecoded.Inc()
}

// RecordDecodeError counts a rejected line by failure kind.
func (r *Recorder) RecordDecodeError(kind string) {
	r.decodeErrors.WithLabelValues(kind).Inc()
}

// RecordSignalRegistered counts a newly registered signal.
func (r *Recorder) RecordSignalRegistered() {
	r.signalsRegistered.Inc()
}

// RecordSampleAppended counts one appended sample for a signal.
func (r *Recorder) RecordSampleAppended(signal string) {
	r.samplesAppended.WithLabelValues(signal).Inc()
}

// RecordLastValue records the last value seen for a signal.
func (r *Recorder) RecordLastValue(signal string, v float64) {
	r.lastValue.WithLabelValues(signal).Set(v)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
