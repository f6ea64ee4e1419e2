package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sportfengur_relay"

// Recorder owns the relay's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	webhooks          *prometheus.CounterVec
	vendorRequests    *prometheus.CounterVec
	vendorRetries     prometheus.Counter
	vendorFallbacks   prometheus.Counter
	vendorCircuit     *prometheus.GaugeVec
	refreshes         *prometheus.CounterVec
	refreshDuration   *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	startingListCache *prometheus.CounterVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by event name and processing outcome.",
		}, []string{"event", "status"}),
		vendorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_requests_total",
			Help:      "Vendor API requests by outcome.",
		}, []string{"outcome"}),
		vendorRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_retries_total",
			Help:      "Vendor API retry attempts.",
		}),
		vendorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_stale_fallbacks_total",
			Help:      "Vendor calls answered from the last-known-good response cache.",
		}),
		vendorCircuit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vendor_circuit_state",
			Help:      "Vendor circuit breaker state (1 for the active state).",
		}, []string{"state"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Leaderboard refresh cycles by competition and outcome.",
		}, []string{"competition", "outcome"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_cycle_seconds",
			Help:      "Duration of leaderboard refresh cycles.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"competition"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		startingListCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "starting_list_cache_total",
			Help:      "Starting list cache lookups by result (hit, miss, forced).",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.webhooks,
		r.vendorRequests,
		r.vendorRetries,
		r.vendorFallbacks,
		r.vendorCircuit,
		r.refreshes,
		r.refreshDuration,
		r.httpRequests,
		r.httpDuration,
		r.startingListCache,
	)
	return r
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Webhook(event, status string) {
	if r == nil {
		return
	}
	r.webhooks.WithLabelValues(event, status).Inc()
}

func (r *Recorder) VendorRequest(outcome string) {
	if r == nil {
		return
	}
	r.vendorRequests.WithLabelValues(outcome).Inc()
}

func (r *Recorder) VendorRetry() {
	if r == nil {
		return
	}
	r.vendorRetries.Inc()
}

func (r *Recorder) VendorFallback() {
	if r == nil {
		return
	}
	r.vendorFallbacks.Inc()
}

func (r *Recorder) VendorCircuitState(states []string, active string) {
	if r == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == active {
			v = 1
		}
		r.vendorCircuit.WithLabelValues(s).Set(v)
	}
}

func (r *Recorder) Refresh(competitionID int64, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	label := strconv.FormatInt(competitionID, 10)
	r.refreshes.WithLabelValues(label, outcome).Inc()
	r.refreshDuration.WithLabelValues(label).Observe(took.Seconds())
}

func (r *Recorder) HTTPRequest(route, method string, code int, took time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (r *Recorder) StartingListLookup(result string) {
	if r == nil {
		return
	}
	r.startingListCache.WithLabelValues(result).Inc()
}
