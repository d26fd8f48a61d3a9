package evote

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds Prometheus metrics of the client
type metrics struct {
	// requests is a counter of gateway calls by operation and outcome kind
	requests *prometheus.CounterVec

	// requestDuration is an histogram that indicates how much time a gateway call took
	requestDuration *prometheus.HistogramVec

	// voteState is a gauge that indicates the current vote state
	voteState *prometheus.GaugeVec

	// authState is a gauge that indicates the current auth state
	authState *prometheus.GaugeVec

	// submissions is a counter of ballot submissions by outcome
	submissions *prometheus.CounterVec
}
