// Package metrics exposes collector counters to Prometheus.
package metrics

import (
	"time"

	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "binance_stream"

// Recorder owns the collector metrics. Each Recorder registers on its own
// registry so tests can create as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	sessionErrors *prometheus.CounterVec
	reconnects    *prometheus.CounterVec
	handleSeconds prometheus.Histogram
}

// NewRecorder creates a Recorder with Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_total",
			Help: "Classified stream events by market and kind",
		}, []string{"market", "kind"}),
		publishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "publish_errors_total",
			Help: "Events that could not be published to NATS",
		}, []string{"market"}),
		sessionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_errors_total",
			Help: "Sessions that ended, by terminal reason",
		}, []string{"market", "reason"}),
		reconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconnects_total",
			Help: "Reconnect attempts after a session ended",
		}, []string{"market"}),
		handleSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "handle_seconds",
			Help:    "Time spent handling one event",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05, .1},
		}),
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) IncEvent(market stream.Market, kind events.Kind) {
	r.events.WithLabelValues(string(market), string(kind)).Inc()
}

func (r *Recorder) IncPublishError(market stream.Market) {
	r.publishErrors.WithLabelValues(string(market)).Inc()
}

// IncSessionError records why a session's Run returned, see stream.Reason.
func (r *Recorder) IncSessionError(market stream.Market, err error) {
	r.sessionErrors.WithLabelValues(string(market), stream.Reason(err)).Inc()
}

func (r *Recorder) IncReconnect(market stream.Market) {
	r.reconnects.WithLabelValues(string(market)).Inc()
}

func (r *Recorder) ObserveHandle(d time.Duration) {
	r.handleSeconds.Observe(d.Seconds())
}

// Instrument wraps next so every event is counted and timed.
func (r *Recorder) Instrument(market stream.Market, next stream.Handler) stream.Handler {
	return stream.HandlerFunc(func(ev events.Event) error {
		start := time.Now()
		err := next.Handle(ev)
		r.ObserveHandle(time.Since(start))
		r.IncEvent(market, ev.Kind())
		return err
	})
}
