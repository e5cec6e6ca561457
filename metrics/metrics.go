// Package metrics provides Prometheus metrics for the appointment engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	AppointmentsCreated     prometheus.Counter
	AppointmentsRescheduled prometheus.Counter
	AppointmentsDeleted     prometheus.Counter
	ProvidersAssigned       prometheus.Counter
	StatusTransitions       *prometheus.CounterVec
	ScheduleRejections      *prometheus.CounterVec
	EventsRecorded          *prometheus.CounterVec
	EventAppendFailures     *prometheus.CounterVec
	RequestDuration         *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with reg. A nil reg uses a
// private registry, which keeps tests from colliding on the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		AppointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Total appointments created",
		}),
		AppointmentsRescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_rescheduled_total",
			Help: "Total appointment reschedules",
		}),
		AppointmentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_deleted_total",
			Help: "Total appointments hard-deleted",
		}),
		ProvidersAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_providers_assigned_total",
			Help: "Total first-time provider assignments",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_status_transitions_total",
			Help: "Audited status transitions by target status",
		}, []string{"status"}),
		ScheduleRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_schedule_rejections_total",
			Help: "Bookings rejected by the scheduling policy",
		}, []string{"reason"}),
		EventsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_events_recorded_total",
			Help: "Audit events appended",
		}, []string{"type"}),
		EventAppendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_event_append_failures_total",
			Help: "Audit events that could not be appended",
		}, []string{"type"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AppointmentsCreated,
		m.AppointmentsRescheduled,
		m.AppointmentsDeleted,
		m.ProvidersAssigned,
		m.StatusTransitions,
		m.ScheduleRejections,
		m.EventsRecorded,
		m.EventAppendFailures,
		m.RequestDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
