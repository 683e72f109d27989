// Package metrics exposes the pipeline's Prometheus collectors: analysis
// call counters and latency, prefilter and cache outcomes, token/cost
// accumulators, queue depth and batch size, audit events and HTTP requests.
//
// Each file declares its collectors and enqueues them via register() in an
// init(); main calls MustRegister() once before the /metrics route is
// mounted. Collectors work unregistered too, which keeps unit tests free of
// duplicate-registration panics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every collector the package declared. Idempotent:
// repeated calls after the first are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
