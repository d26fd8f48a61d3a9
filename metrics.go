package evote

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// newMetrics initialize Prometheus metrics of the client.
// Metrics are only registered when reg is not nil
func newMetrics(namespace string, reg prometheus.Registerer) *metrics {
	z := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evote",
				Name:      "gateway_requests_total",
				Help:      "Indicates the number of calls made to the remote service",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evote",
			Name:      "gateway_request_duration_seconds",
			Help:      "Indicates how much time it took to call the remote service",
		},
			[]string{"operation"},
		),
		voteState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "evote",
				Name:      "vote_state",
				Help:      "Indicates current vote state",
			},
			[]string{"state"},
		),
		authState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "evote",
				Name:      "auth_state",
				Help:      "Indicates current auth state",
			},
			[]string{"state"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "evote",
				Name:      "submissions_total",
				Help:      "Indicates the number of ballot submissions by outcome",
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		z.requests = register(reg, z.requests)
		z.requestDuration = register(reg, z.requestDuration)
		z.voteState = register(reg, z.voteState)
		z.authState = register(reg, z.authState)
		z.submissions = register(reg, z.submissions)
	}
	return z
}

// register registers the collector or reuse the one
// already registered under the same name
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) T {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return collector
}

// observeRequest records a gateway call with its outcome
func (m *metrics) observeRequest(operation, outcome string, start time.Time) {
	elapsed := float64(time.Since(start)) / float64(time.Second)
	m.requests.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
	m.requestDuration.With(prometheus.Labels{"operation": operation}).Observe(elapsed)
}

// setVoteStateGauge will set the current vote state gauge
func (m *metrics) setVoteStateGauge(state VoteState) {
	// Always reset the default values
	for _, s := range []VoteState{Unknown, NotVoted, Voted} {
		m.voteState.With(prometheus.Labels{"state": s.String()}).Set(0)
	}
	m.voteState.With(prometheus.Labels{"state": state.String()}).Set(1)
}

// setAuthStateGauge will set the current auth state gauge
func (m *metrics) setAuthStateGauge(state AuthState) {
	for _, s := range []AuthState{Anonymous, AuthenticatedVoter, AuthenticatedAdmin} {
		m.authState.With(prometheus.Labels{"state": s.String()}).Set(0)
	}
	m.authState.With(prometheus.Labels{"state": state.String()}).Set(1)
}

// incSubmission counts a submission by outcome
func (m *metrics) incSubmission(outcome string) {
	m.submissions.With(prometheus.Labels{"outcome": outcome}).Inc()
}
