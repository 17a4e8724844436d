// Package metrics exposes Prometheus collectors for the application workflow
// and the HTTP surface.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the guildgate collectors.
	Registry = prometheus.NewRegistry()

	applicationsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "intake",
			Name:      "applications_submitted_total",
			Help:      "Applications created by the intake controller.",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "guildgate",
			Subsystem: "photos",
			Name:      "sessions_active",
			Help:      "Photo collection sessions currently waiting for uploads.",
		},
	)

	sessionsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "photos",
			Name:      "sessions_finalized_total",
			Help:      "Photo collection sessions finalized, by reason.",
		},
		[]string{"reason"},
	)

	photosAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "photos",
			Name:      "accepted_total",
			Help:      "Image attachments accepted into applications.",
		},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "review",
			Name:      "decisions_total",
			Help:      "Decision attempts, by outcome and result.",
		},
		[]string{"outcome", "result"},
	)

	deliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "gateway",
			Name:      "delivery_failures_total",
			Help:      "Notifications and chat operations that failed and were swallowed.",
		},
		[]string{"kind"},
	)

	bridgesConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "guildgate",
			Subsystem: "gateway",
			Name:      "bridges_connected",
			Help:      "Chat bridge websocket connections.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildgate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guildgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		applicationsSubmitted,
		sessionsActive,
		sessionsFinalized,
		photosAccepted,
		decisions,
		deliveryFailures,
		bridgesConnected,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func RecordSubmission() { applicationsSubmitted.Inc() }

func SessionStarted() { sessionsActive.Inc() }

// SessionFinalized records a finished photo session; reason is "cap" or "deadline".
func SessionFinalized(reason string) {
	sessionsActive.Dec()
	sessionsFinalized.WithLabelValues(reason).Inc()
}

func RecordPhotoAccepted() { photosAccepted.Inc() }

// RecordDecision counts a decision attempt. result is "ok" or the error class.
func RecordDecision(outcome, result string) {
	decisions.WithLabelValues(outcome, result).Inc()
}

// RecordDeliveryFailure counts a swallowed gateway failure of the given kind
// ("dm", "post", "status", "delete").
func RecordDeliveryFailure(kind string) {
	deliveryFailures.WithLabelValues(kind).Inc()
}

func BridgeConnected()    { bridgesConnected.Inc() }
func BridgeDisconnected() { bridgesConnected.Dec() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the instrumented handler.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + strings.SplitN(trimmed, "/", 2)[0]
}
