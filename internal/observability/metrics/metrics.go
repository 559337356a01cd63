package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for availability resolution
// and booking flows.
type SchedulingMetrics struct {
	resolveDuration *prometheus.HistogramVec
	slotsGenerated  *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	conflictsTotal  prometheus.Counter
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "valorwell",
			Subsystem: "schedule",
			Name:      "resolve_duration_seconds",
			Help:      "Latency of availability resolution per clinician-day",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		slotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valorwell",
			Subsystem: "schedule",
			Name:      "slots_generated_total",
			Help:      "Total bookable slots produced, by availability",
		}, []string{"available"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valorwell",
			Subsystem: "schedule",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "valorwell",
			Subsystem: "schedule",
			Name:      "booking_conflicts_total",
			Help:      "Bookings rejected by the storage-layer overlap guard",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.resolveDuration, m.slotsGenerated, m.bookingsTotal, m.conflictsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveResolve(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.resolveDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveSlots(available, unavailable int) {
	if m == nil {
		return
	}
	m.slotsGenerated.WithLabelValues("true").Add(float64(available))
	m.slotsGenerated.WithLabelValues("false").Add(float64(unavailable))
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}
