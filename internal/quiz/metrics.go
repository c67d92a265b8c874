package quiz

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

// Metrics holds the quiz service collectors.
type Metrics struct {
	storeOps        *prometheus.CounterVec
	resultsRecorded prometheus.Counter
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_store_operations_total",
			Help: "Quiz store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		resultsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "quiz_results_recorded_total",
			Help: "Quiz attempts recorded.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_public_list_cache_total",
			Help: "Public quiz list cache lookups by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) resultRecorded() {
	if m == nil {
		return
	}
	m.resultsRecorded.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
