package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	upstreamDuration *prom.HistogramVec
	upstreamRetries  *prom.CounterVec
	tokenRefreshes   *prom.CounterVec
	httpDuration     *prom.HistogramVec
	httpRequests     *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		upstreamDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "snapfront",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of calls to third-party APIs",
			Buckets:   prom.DefBuckets,
		}, []string{"service", "operation", "result"}),
		upstreamRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "snapfront",
			Name:      "upstream_retries_total",
			Help:      "Retries of transient upstream failures",
		}, []string{"service"}),
		tokenRefreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "snapfront",
			Name:      "upstream_token_refreshes_total",
			Help:      "Access token refreshes triggered by expiry",
		}, []string{"service"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "snapfront",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of served HTTP requests",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "snapfront",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.upstreamDuration, pr.upstreamRetries, pr.tokenRefreshes, pr.httpDuration, pr.httpRequests)
	return pr
}

func (p *PrometheusRecorder) ObserveUpstreamRequest(service, operation string, result ResultLabel, d time.Duration) {
	if p == nil {
		return
	}
	p.upstreamDuration.WithLabelValues(service, operation, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUpstreamRetry(service string) {
	if p == nil {
		return
	}
	p.upstreamRetries.WithLabelValues(service).Inc()
}

func (p *PrometheusRecorder) IncTokenRefresh(service string) {
	if p == nil {
		return
	}
	p.tokenRefreshes.WithLabelValues(service).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(route).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
