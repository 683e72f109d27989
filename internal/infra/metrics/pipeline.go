package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		analysisCallsTotal,
		analysisCallErrors,
		analysisCallLatency,
		prefilterSkipsTotal,
		estimatedTokensTotal,
		estimatedCostUSD,
		queueDepthGauge,
		queueDropsTotal,
		batchSizeGauge,
	)
}

var (
	analysisCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_calls_total",
			Help: "Number of analysis calls made, per mode.",
		},
		[]string{"mode"},
	)

	analysisCallErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_call_errors_total",
			Help: "Number of failed analysis calls, per mode.",
		},
		[]string{"mode"},
	)

	analysisCallLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_call_latency_seconds",
			Help:    "Analysis call latency distribution, retries included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
	)

	prefilterSkipsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prefilter_skips_total",
			Help: "Conversations shed by the cheap prefilter.",
		},
	)

	estimatedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "estimated_tokens_total",
			Help: "Cumulative estimated tokens used.",
		},
	)

	estimatedCostUSD = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "estimated_cost_usd_total",
			Help: "Cumulative estimated analysis cost in USD.",
		},
	)

	queueDepthGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "processing_queue_depth",
			Help: "Current depth of the processing queue.",
		},
	)

	queueDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processing_queue_drops_total",
			Help: "Work items dropped because the queue was at capacity.",
		},
	)

	batchSizeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "processing_batch_size",
			Help: "Current adaptive batch size of the scheduler.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncAnalysisCall(mode string) { analysisCallsTotal.WithLabelValues(norm(mode)).Inc() }
func IncAnalysisError(mode string) { analysisCallErrors.WithLabelValues(norm(mode)).Inc() }

func ObserveAnalysisLatency(seconds float64) { analysisCallLatency.Observe(seconds) }

func IncPrefilterSkip() { prefilterSkipsTotal.Inc() }

func AddEstimatedTokens(n int) {
	if n > 0 {
		estimatedTokensTotal.Add(float64(n))
	}
}

func AddEstimatedCost(usd float64) {
	if usd > 0 {
		estimatedCostUSD.Add(usd)
	}
}

func SetQueueDepth(n int) { queueDepthGauge.Set(float64(n)) }
func IncQueueDrop()       { queueDropsTotal.Inc() }
func SetBatchSize(n int)  { batchSizeGauge.Set(float64(n)) }
