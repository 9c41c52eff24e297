// Package metrics exposes Prometheus collectors for the HTTP surface, the
// store, change events and the mirror worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kharcha"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
	mirrorMessages  *prometheus.CounterVec
	rejections      *prometheus.CounterVec
}

// New builds a registry holding the kharcha collectors plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "route"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "The HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method", "route"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store calls partitioned by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store call latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_published_total",
			Help:      "Change events handed to the broker, partitioned by op and outcome.",
		}, []string{"op", "outcome"}),
		mirrorMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_messages_total",
			Help:      "Change events applied to the spreadsheet mirror, partitioned by op and outcome.",
		}, []string{"op", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rejections_total",
			Help:      "Requests refused or flagged before reaching a handler, partitioned by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.storeOps,
		m.storeDuration,
		m.eventsPublished,
		m.mirrorMessages,
		m.rejections,
	)
	return m
}

// Registry is exposed so tests and callers can gather or add collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request. route should be the matched
// pattern, not the raw path, to keep label cardinality low.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestCount.WithLabelValues(code, method, route).Inc()
	m.requestDuration.WithLabelValues(code, method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveStore(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, outcome(err)).Inc()
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePublish(op string, err error) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) ObserveMirror(op string, err error) {
	if m == nil {
		return
	}
	m.mirrorMessages.WithLabelValues(op, outcome(err)).Inc()
}

// Rejection reasons.
const (
	ReasonRateLimited = "rate_limited"
	ReasonSuspicious  = "suspicious"
)

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// GaugeFunc registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
