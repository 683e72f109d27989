package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal) }

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_cache_requests_total",
		Help: "Tracks analysis cache hits and misses.",
	},
	[]string{"result"}, // "hit" | "miss"
)

func IncCacheRequest(result string) {
	cacheRequestsTotal.WithLabelValues(norm(result)).Inc()
}
