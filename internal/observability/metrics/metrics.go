package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the appointment scheduler.
type BookingMetrics struct {
	attemptsTotal  *prometheus.CounterVec
	bookingLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "scheduling",
			Name:      "booking_attempts_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terapiaconect",
			Subsystem: "scheduling",
			Name:      "booking_latency_seconds",
			Help:      "Latency of appointment creation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.bookingLatency)
	return m
}

// ObserveAttempt records a booking attempt outcome
// (created, conflict, outside_availability, not_configured, not_found, error).
func (m *BookingMetrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.bookingLatency.Observe(seconds)
}

// AIMetrics exposes counters for AI calls and the token ledger.
type AIMetrics struct {
	tokensTotal       *prometheus.CounterVec
	costTotal         *prometheus.CounterVec
	unknownModelTotal prometheus.Counter
	estimatorFallback prometheus.Counter
	ledgerWriteErrors prometheus.Counter
}

func NewAIMetrics(reg prometheus.Registerer) *AIMetrics {
	m := &AIMetrics{
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Estimated tokens consumed by model and direction",
		}, []string{"model", "direction"}),
		costTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "ai",
			Name:      "cost_usd_total",
			Help:      "Estimated USD cost accumulated by model",
		}, []string{"model"}),
		unknownModelTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "ai",
			Name:      "unknown_model_pricing_total",
			Help:      "Calls priced with the default tier because the model was not in the price table",
		}),
		estimatorFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "ai",
			Name:      "estimator_fallback_total",
			Help:      "Token estimations that used the character-count heuristic",
		}),
		ledgerWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terapiaconect",
			Subsystem: "ai",
			Name:      "ledger_write_errors_total",
			Help:      "Failed writes of the token usage ledger file",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.tokensTotal, m.costTotal, m.unknownModelTotal, m.estimatorFallback, m.ledgerWriteErrors)
	return m
}

func (m *AIMetrics) ObserveUsage(model string, inputTokens, outputTokens int, cost float64) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.tokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	m.costTotal.WithLabelValues(model).Add(cost)
}

func (m *AIMetrics) ObserveUnknownModel() {
	if m == nil {
		return
	}
	m.unknownModelTotal.Inc()
}

func (m *AIMetrics) ObserveEstimatorFallback() {
	if m == nil {
		return
	}
	m.estimatorFallback.Inc()
}

func (m *AIMetrics) ObserveLedgerWriteError() {
	if m == nil {
		return
	}
	m.ledgerWriteErrors.Inc()
}
