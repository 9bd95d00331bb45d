package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)

	TimesheetsLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pms_timesheets_logged_total",
		Help: "Timesheets created",
	})
	TaskTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pms_task_transitions_total",
		Help: "Accepted task status transitions",
	}, []string{"from", "to"})
	ReportCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pms_report_cache_requests_total",
		Help: "Report cache lookups by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, TimesheetsLogged, TaskTransitions, ReportCache)
}

// ObserveCacheLookup records a report cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		ReportCache.WithLabelValues("hit").Inc()
		return
	}
	ReportCache.WithLabelValues("miss").Inc()
}
