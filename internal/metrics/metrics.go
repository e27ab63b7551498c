// metrics — Prometheus-коллекторы сервиса. Регистрируются в
// prometheus.DefaultRegisterer и отдаются через promhttp.Handler() на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shop_auth"

var (
	// HTTPRequests — число обработанных HTTP-запросов.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration — длительность HTTP-запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthEvents — исходы auth-операций (login, refresh, logout, ...).
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Auth events by kind and result.",
	}, []string{"event", "result"})

	// Swept — число удалённых просроченных записей.
	Swept = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_total",
		Help:      "Expired records removed by kind (refresh_tokens, blacklist).",
	}, []string{"kind"})
)

// Результаты для AuthEvents.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Event фиксирует исход auth-операции.
func Event(event string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}

	AuthEvents.WithLabelValues(event, result).Inc()
}
