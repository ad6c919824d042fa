package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for availability and booking flows.
type BookingMetrics struct {
	availabilityTotal *prometheus.CounterVec
	bookingTotal      *prometheus.CounterVec
	statusTotal       *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "booking",
			Name:      "availability_lookups_total",
			Help:      "Total availability lookups by cache outcome",
		}, []string{"cache"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "booking",
			Name:      "appointments_created_total",
			Help:      "Total appointment create attempts by outcome",
		}, []string{"type", "outcome"}),
		statusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "booking",
			Name:      "status_changes_total",
			Help:      "Total appointment status transitions",
		}, []string{"from", "to"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advisor",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.bookingTotal, m.statusTotal, m.requestLatency)
	return m
}

func (m *BookingMetrics) ObserveAvailability(cacheHit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.availabilityTotal.WithLabelValues(label).Inc()
}

func (m *BookingMetrics) ObserveBooking(appointmentType, outcome string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(appointmentType, outcome).Inc()
}

func (m *BookingMetrics) ObserveStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusTotal.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, status).Observe(seconds)
}
