// Package metrics records client-side session and pagination metrics with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is used by the session manager and the paginated loader.
type Recorder interface {
	RecordLogin(success bool)
	RecordRefresh(success bool)
	RecordRestore(outcome string)
	RecordPageLoaded(items int)
	RecordPageFailure(reason string)
	RecordAuthRetry()
	RecordFetchLatency(duration time.Duration)
}

// Restore outcomes.
const (
	RestoreNone      = "none"
	RestoreValid     = "valid"
	RestoreRefreshed = "refreshed"
	RestoreOffline   = "offline"
	RestoreCleared   = "cleared"
)

// Collector implements Recorder with Prometheus metrics.
type Collector struct {
	logins       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	restores     *prometheus.CounterVec
	pages        prometheus.Counter
	items        prometheus.Counter
	pageFailures *prometheus.CounterVec
	authRetries  prometheus.Counter
	fetchLatency prometheus.Histogram
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "materials_client_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "materials_client_token_refreshes_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "materials_client_session_restores_total",
			Help: "Startup session restores by outcome.",
		}, []string{"outcome"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "materials_client_pages_loaded_total",
			Help: "Pages appended to the materials list.",
		}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "materials_client_items_loaded_total",
			Help: "Materials appended to the list.",
		}),
		pageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "materials_client_page_failures_total",
			Help: "Page loads that did not append, by reason.",
		}, []string{"reason"}),
		authRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "materials_client_auth_retries_total",
			Help: "Page fetches retried after a token refresh.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "materials_client_fetch_latency_seconds",
			Help:    "Latency of page fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.refreshes,
		c.restores,
		c.pages,
		c.items,
		c.pageFailures,
		c.authRetries,
		c.fetchLatency,
	)

	return c
}

func (c *Collector) RecordLogin(success bool) {
	c.logins.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordRefresh(success bool) {
	c.refreshes.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordRestore(outcome string) {
	c.restores.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPageLoaded(items int) {
	c.pages.Inc()
	c.items.Add(float64(items))
}

func (c *Collector) RecordPageFailure(reason string) {
	c.pageFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordAuthRetry() {
	c.authRetries.Inc()
}

func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the metrics in gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Noop discards every measurement.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordLogin(bool)                 {}
func (Noop) RecordRefresh(bool)               {}
func (Noop) RecordRestore(string)             {}
func (Noop) RecordPageLoaded(int)             {}
func (Noop) RecordPageFailure(string)         {}
func (Noop) RecordAuthRetry()                 {}
func (Noop) RecordFetchLatency(time.Duration) {}
