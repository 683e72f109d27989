package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(httpRequestsTotal, eventsAppendedTotal) }

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by route and status class.",
		},
		[]string{"route", "status"},
	)

	eventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processing_events_total",
			Help: "Audit events appended, by kind.",
		},
		[]string{"kind"},
	)
)

func IncHTTPRequest(route, status string) {
	httpRequestsTotal.WithLabelValues(norm(route), norm(status)).Inc()
}

func IncEvent(kind string) {
	eventsAppendedTotal.WithLabelValues(norm(kind)).Inc()
}
