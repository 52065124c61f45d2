package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAttempt("created")
	m.ObserveAttempt("conflict")
	m.ObserveLatency(0.02)
}

func TestAIMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAIMetrics(reg)
	m.ObserveUsage("gpt-4o-mini", 100, 100, 0.0001)
	m.ObserveUnknownModel()
	m.ObserveEstimatorFallback()
	m.ObserveLedgerWriteError()
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveAttempt("created")
	b.ObserveLatency(0.1)

	var a *AIMetrics
	a.ObserveUsage("gpt-4o", 1, 1, 0.1)
	a.ObserveUnknownModel()
	a.ObserveEstimatorFallback()
	a.ObserveLedgerWriteError()
}
