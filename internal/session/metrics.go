package session

import (
	"strconv"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records selection and estimation activity. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// selections counts how often each item is chosen, labelled by item index.
	selections *prometheus.CounterVec

	// estimates counts ability estimates by how they were obtained.
	estimates *prometheus.CounterVec

	// updateDuration tracks full recomputation latency.
	updateDuration prometheus.Histogram

	// revealed counts responses revealed by the evaluation runner.
	revealed *prometheus.CounterVec
}

// NewMetrics registers the session collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		selections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "adaptiq_item_selections_total",
			Help: "Items chosen by the selector, by item index",
		}, []string{"item"}),
		estimates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "adaptiq_ability_estimates_total",
			Help: "Ability estimates by estimation method",
		}, []string{"method"}),
		updateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "adaptiq_update_duration_seconds",
			Help:    "Time to recompute every student's ability",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}),
		revealed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "adaptiq_responses_revealed_total",
			Help: "Responses revealed during evaluation runs, by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveSelection implements irt.SelectionObserver.
func (m *Metrics) ObserveSelection(_, item int) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(strconv.Itoa(item)).Inc()
}

func (m *Metrics) observeEstimate(method irt.Method) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(string(method)).Inc()
}

func (m *Metrics) observeUpdate(seconds float64) {
	if m == nil {
		return
	}
	m.updateDuration.Observe(seconds)
}

func (m *Metrics) observeReveal(outcome int) {
	if m == nil {
		return
	}
	m.revealed.WithLabelValues(strconv.Itoa(outcome)).Inc()
}
