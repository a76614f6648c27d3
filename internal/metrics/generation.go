package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation results.
const (
	ResultParsed   = "parsed"
	ResultFallback = "fallback"
	ResultText     = "text"
	ResultError    = "error"
)

var generationTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "calls_total",
		Help:      "大模型调用次数，按生成类型与结果区分。",
	},
	[]string{"kind", "result"},
)

// ObserveGeneration counts one completion call of the given kind.
func ObserveGeneration(kind, result string) {
	generationTotal.WithLabelValues(kind, result).Inc()
}
