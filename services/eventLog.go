package services

import (
	"context"

	"CommClinic/metrics"
	"CommClinic/models"

	"go.uber.org/zap"
)

// EventLog appends audit events for appointments.
//
// Appends are best-effort: the clinical write that triggered an event has
// already committed, so a failed append is logged and counted but never fails
// the request. The audit trail can therefore miss entries during a database
// outage; appointment_event_append_failures_total tracks how many.
type EventLog struct {
	store   EventStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewEventLog(store EventStore, log *zap.Logger, m *metrics.Metrics) *EventLog {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &EventLog{store: store, log: log, metrics: m}
}

// Record appends event and reports whether it was stored.
func (l *EventLog) Record(ctx context.Context, event *models.Event) bool {
	if err := l.store.Append(ctx, event); err != nil {
		l.metrics.EventAppendFailures.WithLabelValues(string(event.Type)).Inc()
		l.log.Warn("failed to append appointment event",
			zap.String("type", string(event.Type)),
			zap.Uint("appointment_id", event.AppointmentID),
			zap.String("created_by_id", event.CreatedByID),
			zap.Error(err),
		)
		return false
	}
	l.metrics.EventsRecorded.WithLabelValues(string(event.Type)).Inc()
	if event.Type == models.EventAppointmentStatusChanged {
		l.metrics.StatusTransitions.WithLabelValues(string(event.Status)).Inc()
	}
	return true
}

func (l *EventLog) statusChanged(ctx context.Context, appointment *models.Appointment, actorID string) {
	l.Record(ctx, &models.Event{
		Type:          models.EventAppointmentStatusChanged,
		AppointmentID: appointment.ID,
		Status:        appointment.Status,
		CreatedByID:   actorID,
	})
}

func (l *EventLog) vitalsRecorded(ctx context.Context, vitals *models.Vitals, actorID string) {
	id := vitals.ID
	l.Record(ctx, &models.Event{
		Type:          models.EventVitalsRecorded,
		AppointmentID: vitals.AppointmentID,
		VitalsID:      &id,
		CreatedByID:   actorID,
	})
}

func (l *EventLog) soapNoteWritten(ctx context.Context, eventType models.EventType, note *models.SoapNote, actorID string) {
	id := note.ID
	l.Record(ctx, &models.Event{
		Type:          eventType,
		AppointmentID: note.AppointmentID,
		SoapNoteID:    &id,
		CreatedByID:   actorID,
	})
}

// List returns the audit trail of one appointment, oldest first.
func (l *EventLog) List(ctx context.Context, appointmentID uint) ([]models.Event, error) {
	return l.store.ListByAppointment(ctx, appointmentID)
}
