package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure kinds reported by the proxy.
const (
	KindConfiguration = "configuration"
	KindTransport     = "transport"
	KindUpstream      = "upstream"
	KindContract      = "contract"
)

type Collector struct {
	gatherer prometheus.Gatherer
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Proxied requests by route and response code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Time spent serving a proxied request, backend call included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_failures_total",
			Help: "Backend failures by route and kind.",
		}, []string{"route", "kind"}),
	}
	reg.MustRegister(c.requests, c.duration, c.failures)
	return c
}

func (c *Collector) ObserveRequest(route string, code int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveFailure(route, kind string) {
	c.failures.WithLabelValues(route, kind).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
