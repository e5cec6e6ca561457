package services

import (
	"context"

	"CommClinic/models"

	"go.uber.org/zap"
)

// SoapNoteService manages SOAP notes outside of an appointment update.
type SoapNoteService struct {
	appointments AppointmentStore
	notes        SoapNoteStore
	events       *EventLog
	log          *zap.Logger
}

func NewSoapNoteService(appointments AppointmentStore, notes SoapNoteStore, events *EventLog, log *zap.Logger) *SoapNoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SoapNoteService{appointments: appointments, notes: notes, events: events, log: log}
}

// Create records a new SOAP note. The appointment must already have vitals.
func (s *SoapNoteService) Create(ctx context.Context, caller models.Caller, appointmentID uint, payload *models.SoapNotePayload) (*models.SoapNote, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	if !CanWriteSensitive(caller) {
		return nil, &ForbiddenError{Field: FieldSoapNote}
	}
	appointment, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}

	note, err := BuildSoapNote(appointment, appointment.Vitals, payload, caller.CallerID())
	if err != nil {
		return nil, err
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	s.events.soapNoteWritten(ctx, models.EventSoapNoteRecorded, note, caller.CallerID())
	return note, nil
}

func (s *SoapNoteService) Get(ctx context.Context, caller models.Caller, id uint) (*models.SoapNote, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	note, appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}
	return note, nil
}

// Update rewrites all four sections of a note. Derived fields are taken again
// from the appointment's current vitals and purposes.
func (s *SoapNoteService) Update(ctx context.Context, caller models.Caller, id uint, payload *models.SoapNotePayload) (*models.SoapNote, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	if !CanWriteSensitive(caller) {
		return nil, &ForbiddenError{Field: FieldSoapNote}
	}
	note, appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}

	rebuilt, err := BuildSoapNote(appointment, appointment.Vitals, payload, note.CreatedByID)
	if err != nil {
		return nil, err
	}
	note.Subjective = rebuilt.Subjective
	note.Objective = rebuilt.Objective
	note.Assessment = rebuilt.Assessment
	note.Plan = rebuilt.Plan

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}
	s.events.soapNoteWritten(ctx, models.EventSoapNoteUpdated, note, caller.CallerID())
	return note, nil
}

// Delete removes a note. Only a provider assigned to the appointment, or an
// administrator or receptionist, may delete.
func (s *SoapNoteService) Delete(ctx context.Context, caller models.Caller, id uint) error {
	if caller == nil {
		return ErrAuthenticationRequired
	}
	note, appointment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	provider, ok := caller.(models.ProviderCaller)
	if !ok || !(provider.RoleTitle.CanManageAll() || appointment.HasProvider(provider.ID)) {
		return &AccessDeniedError{Reason: "only an assigned provider may delete a SOAP note"}
	}
	if err := s.notes.Delete(ctx, note); err != nil {
		return err
	}
	s.log.Info("soap note deleted",
		zap.Uint("soap_note_id", note.ID),
		zap.Uint("appointment_id", note.AppointmentID),
		zap.String("deleted_by_id", caller.CallerID()),
	)
	return nil
}

func (s *SoapNoteService) load(ctx context.Context, id uint) (*models.SoapNote, *models.Appointment, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if note == nil {
		return nil, nil, &NotFoundError{Resource: "soap note", ID: id}
	}
	appointment, err := s.loadAppointment(ctx, note.AppointmentID)
	if err != nil {
		return nil, nil, err
	}
	return note, appointment, nil
}

func (s *SoapNoteService) loadAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, &NotFoundError{Resource: "appointment", ID: id}
	}
	return appointment, nil
}
