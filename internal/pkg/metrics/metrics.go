package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReservationMetrics counts booking, payment and calendar consistency outcomes.
type ReservationMetrics struct {
	bookings    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
	divergence  *prometheus.CounterVec
	lockWait    prometheus.Histogram
}

func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	m := &ReservationMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "reservation",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "reservation",
			Name:      "transitions_total",
			Help:      "Cancel and complete attempts by outcome",
		}, []string{"transition", "result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "payment",
			Name:      "confirmations_total",
			Help:      "Payment confirmation attempts by outcome",
		}, []string{"result"}),
		divergence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "calendar",
			Name:      "divergence_total",
			Help:      "Detected calendar/ledger divergences",
		}, []string{"kind"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "calendar",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-doctor lock",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.transitions, m.payments, m.divergence, m.lockWait)
	return m
}

func (m *ReservationMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *ReservationMetrics) ObserveTransition(transition, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition, result).Inc()
}

func (m *ReservationMetrics) ObservePayment(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *ReservationMetrics) ObserveDivergence(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.divergence.WithLabelValues(kind).Add(float64(n))
}

func (m *ReservationMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
