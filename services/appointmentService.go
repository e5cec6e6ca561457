package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CommClinic/metrics"
	"CommClinic/models"
	"CommClinic/repositories"
	"CommClinic/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	scheduleLockRetries = 3
	scheduleLockDelay   = 200 * time.Millisecond
	defaultLockTTL      = 10 * time.Second
)

type AppointmentServiceOptions struct {
	// Location is the clinic's timezone; schedules are interpreted in it.
	Location *time.Location
	LockTTL  time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// AppointmentService owns the appointment lifecycle: booking, rescheduling,
// status changes and the clinical records attached to a visit.
type AppointmentService struct {
	appointments AppointmentStore
	patients     PatientStore
	providers    ProviderStore
	events       *EventLog
	locker       ScheduleLocker
	loc          *time.Location
	lockTTL      time.Duration
	log          *zap.Logger
	metrics      *metrics.Metrics
}

// NewAppointmentService wires the lifecycle manager. locker may be nil, in
// which case only the database uniqueness constraint guards concurrent
// bookings.
func NewAppointmentService(appointments AppointmentStore, patients PatientStore, providers ProviderStore, events *EventLog, locker ScheduleLocker, opts AppointmentServiceOptions) *AppointmentService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	return &AppointmentService{
		appointments: appointments,
		patients:     patients,
		providers:    providers,
		events:       events,
		locker:       locker,
		loc:          opts.Location,
		lockTTL:      opts.LockTTL,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
}

func (s *AppointmentService) Create(ctx context.Context, caller models.Caller, payload *models.AppointmentPayload) (*models.Appointment, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	if err := utils.ValidateAppointmentPayload(payload, true); err != nil {
		return nil, err
	}

	patientID, err := bookingPatient(caller, payload.PatientID)
	if err != nil {
		return nil, err
	}

	otherPurpose := ""
	if payload.OtherPurpose != nil {
		otherPurpose = *payload.OtherPurpose
	}
	if err := utils.ValidatePurposes(payload.Purposes, otherPurpose); err != nil {
		return nil, err
	}

	if err := AuthorizeSensitiveFields(caller, payload); err != nil {
		return nil, err
	}
	nested := NormalizeSensitiveFields(caller, payload)
	if nested.SoapNote != nil && nested.SoapNote.ID != nil {
		return nil, newValidationError("soap_note.id", "cannot reference an existing note when booking")
	}
	if err := s.requireProviders(ctx, nested.Providers); err != nil {
		return nil, err
	}

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, &NotFoundError{Resource: "patient", ID: patientID}
	}

	hasInsurance := payload.HasInsurance != nil && *payload.HasInsurance
	if hasInsurance && patient.InsuranceProviderID == nil {
		return nil, newValidationError("has_insurance", "patient has no insurance provider on file")
	}

	appointment := &models.Appointment{
		PatientID: patientID,
		Schedule: models.Schedule{
			AppointmentDate: payload.Schedule.AppointmentDate,
			AppointmentTime: payload.Schedule.AppointmentTime,
		},
		OtherPurpose: otherPurpose,
		Status:       models.StatusScheduled,
		HasInsurance: hasInsurance,
		CreatedByID:  caller.CallerID(),
	}
	appointment.SetPurposes(payload.Purposes)
	if payload.Status != nil {
		appointment.Status = *payload.Status
	}
	if payload.FollowUp != nil {
		appointment.IsFollowUpRequired = payload.FollowUp.IsFollowUpRequired
		appointment.FollowUpID = payload.FollowUp.FollowUpID
	}

	appointment.Vitals = nested.Vitals
	if nested.SoapNote != nil {
		note, err := BuildSoapNote(appointment, nested.Vitals, nested.SoapNote, caller.CallerID())
		if err != nil {
			return nil, err
		}
		appointment.SoapNotes = []models.SoapNote{*note}
	}
	appointment.AppointmentProviders = nested.Providers

	release, err := s.lockDay(ctx, patientID, appointment.Schedule.AppointmentDate)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkSchedule(ctx, appointment, 0); err != nil {
		return nil, err
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, s.translateWriteError(err)
	}
	s.metrics.AppointmentsCreated.Inc()
	s.log.Info("appointment created",
		zap.Uint("appointment_id", appointment.ID),
		zap.String("patient_id", appointment.PatientID),
		zap.String("created_by_id", appointment.CreatedByID),
	)

	if _, ok := caller.(models.ProviderCaller); ok {
		actorID := caller.CallerID()
		s.events.statusChanged(ctx, appointment, actorID)
		if appointment.Vitals != nil {
			s.events.vitalsRecorded(ctx, appointment.Vitals, actorID)
		}
		for i := range appointment.SoapNotes {
			s.events.soapNoteWritten(ctx, models.EventSoapNoteRecorded, &appointment.SoapNotes[i], actorID)
		}
	}

	return appointment, nil
}

func (s *AppointmentService) Get(ctx context.Context, caller models.Caller, id uint) (*models.Appointment, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}
	return appointment, nil
}

// List returns the appointments visible to caller.
func (s *AppointmentService) List(ctx context.Context, caller models.Caller) ([]models.Appointment, error) {
	switch c := caller.(type) {
	case models.PatientCaller:
		return s.appointments.ListByPatient(ctx, c.ID)
	case models.ProviderCaller:
		if c.RoleTitle.CanManageAll() {
			return s.appointments.ListAll(ctx)
		}
		return s.appointments.ListByProvider(ctx, c.ID)
	default:
		return nil, ErrAuthenticationRequired
	}
}

func (s *AppointmentService) Update(ctx context.Context, caller models.Caller, id uint, payload *models.AppointmentPayload) (*models.Appointment, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}
	if err := utils.ValidateAppointmentPayload(payload, false); err != nil {
		return nil, err
	}
	if payload.PatientID != "" && payload.PatientID != appointment.PatientID {
		return nil, newValidationError("patient_id", "cannot be changed")
	}
	if err := AuthorizeSensitiveFields(caller, payload); err != nil {
		return nil, err
	}
	nested := NormalizeSensitiveFields(caller, payload)
	if err := s.requireProviders(ctx, nested.Providers); err != nil {
		return nil, err
	}

	actorID := caller.CallerID()
	previousStatus := appointment.Status
	previousSchedule := appointment.Schedule

	if payload.Purposes != nil {
		appointment.SetPurposes(payload.Purposes)
	}
	if payload.OtherPurpose != nil {
		appointment.OtherPurpose = *payload.OtherPurpose
	}
	if payload.Purposes != nil || payload.OtherPurpose != nil {
		if err := utils.ValidatePurposes(appointment.PurposeList(), appointment.OtherPurpose); err != nil {
			return nil, err
		}
	}

	if payload.HasInsurance != nil {
		if *payload.HasInsurance && !appointment.HasInsurance {
			patient, err := s.patients.GetByID(ctx, appointment.PatientID)
			if err != nil {
				return nil, err
			}
			if patient == nil || patient.InsuranceProviderID == nil {
				return nil, newValidationError("has_insurance", "patient has no insurance provider on file")
			}
		}
		appointment.HasInsurance = *payload.HasInsurance
	}

	if payload.FollowUp != nil {
		appointment.IsFollowUpRequired = payload.FollowUp.IsFollowUpRequired
		appointment.FollowUpID = payload.FollowUp.FollowUpID
	}

	if payload.Schedule != nil {
		if payload.Schedule.AppointmentDate != "" {
			appointment.Schedule.AppointmentDate = payload.Schedule.AppointmentDate
		}
		if payload.Schedule.AppointmentTime != "" {
			appointment.Schedule.AppointmentTime = payload.Schedule.AppointmentTime
		}
	}
	// schedule_count is server-maintained; the payload's copy is ignored.
	if payload.Status != nil {
		appointment.Status = *payload.Status
		if appointment.Status == models.StatusRescheduled {
			appointment.Schedule.ScheduleCount++
		}
	}

	vitalsCreated := false
	if nested.Vitals != nil {
		if appointment.Vitals != nil {
			applyVitals(appointment.Vitals, payload.Vitals)
		} else {
			nested.Vitals.AppointmentID = appointment.ID
			appointment.Vitals = nested.Vitals
			vitalsCreated = true
		}
	}

	noteIndex := -1
	if nested.SoapNote != nil {
		note, err := BuildSoapNote(appointment, appointment.Vitals, nested.SoapNote, actorID)
		if err != nil {
			return nil, err
		}
		if nested.SoapNote.ID != nil {
			noteIndex = indexOfSoapNote(appointment.SoapNotes, *nested.SoapNote.ID)
			if noteIndex < 0 {
				return nil, &NotFoundError{Resource: "soap note", ID: *nested.SoapNote.ID}
			}
			existing := &appointment.SoapNotes[noteIndex]
			existing.Subjective = note.Subjective
			existing.Objective = note.Objective
			existing.Assessment = note.Assessment
			existing.Plan = note.Plan
		} else {
			appointment.SoapNotes = append(appointment.SoapNotes, *note)
			noteIndex = len(appointment.SoapNotes) - 1
		}
	}

	for _, ap := range nested.Providers {
		if appointment.HasProvider(ap.ProviderID) {
			continue
		}
		ap.AppointmentID = appointment.ID
		appointment.AppointmentProviders = append(appointment.AppointmentProviders, ap)
	}

	scheduleMoved := appointment.Schedule.AppointmentDate != previousSchedule.AppointmentDate ||
		appointment.Schedule.AppointmentTime != previousSchedule.AppointmentTime
	if scheduleMoved {
		release, err := s.lockDay(ctx, appointment.PatientID, appointment.Schedule.AppointmentDate)
		if err != nil {
			return nil, err
		}
		defer release()

		if err := s.checkSchedule(ctx, appointment, appointment.ID); err != nil {
			return nil, err
		}
	}

	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, s.translateWriteError(err)
	}
	if payload.Status != nil && *payload.Status == models.StatusRescheduled {
		s.metrics.AppointmentsRescheduled.Inc()
	}

	if payload.Status != nil && statusChangeAudited(previousStatus, appointment.Status) {
		s.events.statusChanged(ctx, appointment, actorID)
	}
	if vitalsCreated {
		s.events.vitalsRecorded(ctx, appointment.Vitals, actorID)
	}
	if noteIndex >= 0 {
		s.events.soapNoteWritten(ctx, nested.SoapNoteEvent.Type, &appointment.SoapNotes[noteIndex], actorID)
	}

	return appointment, nil
}

// Delete hard-deletes an appointment with its vitals, notes and provider
// assignments. Audit events are kept.
func (s *AppointmentService) Delete(ctx context.Context, caller models.Caller, id uint) error {
	if caller == nil {
		return ErrAuthenticationRequired
	}
	appointment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.AppointmentsDeleted.Inc()
	s.log.Info("appointment deleted", zap.Uint("appointment_id", id), zap.String("deleted_by_id", caller.CallerID()))
	return nil
}

// AssignProvider attaches the first provider to an appointment. The boolean
// result is true when a provider was already assigned and nothing changed.
func (s *AppointmentService) AssignProvider(ctx context.Context, caller models.Caller, appointmentID uint, providerID string) (*models.Appointment, bool, error) {
	if caller == nil {
		return nil, false, ErrAuthenticationRequired
	}
	if !CanWriteSensitive(caller) {
		return nil, false, &ForbiddenError{Field: FieldAppointmentProviders}
	}
	if strings.TrimSpace(providerID) == "" {
		return nil, false, newValidationError("provider_id", "is required")
	}
	if _, err := s.load(ctx, appointmentID); err != nil {
		return nil, false, err
	}
	if err := s.requireProviders(ctx, []models.AppointmentProvider{{ProviderID: providerID}}); err != nil {
		return nil, false, err
	}

	alreadyAssigned, err := s.appointments.AssignProvider(ctx, appointmentID, providerID)
	if err != nil {
		return nil, false, err
	}
	if !alreadyAssigned {
		s.metrics.ProvidersAssigned.Inc()
	}

	appointment, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, false, err
	}
	return appointment, alreadyAssigned, nil
}

// RecordVitals stores vitals for an appointment, replacing the measurements
// in place when vitals already exist. It reports whether a record was created.
func (s *AppointmentService) RecordVitals(ctx context.Context, caller models.Caller, appointmentID uint, payload *models.VitalsPayload) (*models.Vitals, bool, error) {
	if caller == nil {
		return nil, false, ErrAuthenticationRequired
	}
	if !CanWriteSensitive(caller) {
		return nil, false, &ForbiddenError{Field: FieldVitals}
	}
	if err := utils.ValidateVitals(payload); err != nil {
		return nil, false, err
	}
	appointment, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, false, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, false, err
	}

	vitals := appointment.Vitals
	created := vitals == nil
	if created {
		vitals = BuildVitals(payload, caller.CallerID())
		vitals.AppointmentID = appointment.ID
	} else {
		applyVitals(vitals, payload)
	}

	if err := s.appointments.SaveVitals(ctx, vitals); err != nil {
		return nil, false, err
	}
	if created {
		s.events.vitalsRecorded(ctx, vitals, caller.CallerID())
	}
	return vitals, created, nil
}

// ListEvents returns the audit trail of an appointment the caller can view.
func (s *AppointmentService) ListEvents(ctx context.Context, caller models.Caller, appointmentID uint) ([]models.Event, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}
	appointment, err := s.load(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeView(appointment, caller); err != nil {
		return nil, err
	}
	return s.events.List(ctx, appointmentID)
}

func (s *AppointmentService) load(ctx context.Context, id uint) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, &NotFoundError{Resource: "appointment", ID: id}
	}
	return appointment, nil
}

func (s *AppointmentService) requireProviders(ctx context.Context, assignments []models.AppointmentProvider) error {
	for _, ap := range assignments {
		provider, err := s.providers.GetByID(ctx, ap.ProviderID)
		if err != nil {
			return err
		}
		if provider == nil {
			return &NotFoundError{Resource: "provider", ID: ap.ProviderID}
		}
	}
	return nil
}

// checkSchedule applies the scheduling policy against the patient's other
// appointment on the same day, ignoring excludeID.
func (s *AppointmentService) checkSchedule(ctx context.Context, appointment *models.Appointment, excludeID uint) error {
	startsAt, err := appointment.Schedule.StartsAt(s.loc)
	if err != nil {
		return newValidationError("schedule", err.Error())
	}

	var existing []time.Time
	sameDay, err := s.appointments.FindSameDay(ctx, appointment.PatientID, appointment.Schedule.AppointmentDate, excludeID)
	if err != nil {
		return err
	}
	if sameDay != nil {
		other, err := sameDay.Schedule.StartsAt(s.loc)
		if err != nil {
			return &DomainError{Message: fmt.Sprintf("appointment %d has an unreadable schedule", sameDay.ID), Err: err}
		}
		existing = append(existing, other)
	}

	decision := CanScheduleAppointment(startsAt, existing)
	if !decision.Allowed {
		s.metrics.ScheduleRejections.WithLabelValues(rejectionLabel(decision.Reason)).Inc()
		return newValidationError("schedule", decision.Reason)
	}
	return nil
}

// lockDay takes the per-patient, per-day booking lock. When Redis is
// unreachable the booking proceeds and the unique index on
// (patient_id, appointment_date) remains the guard.
func (s *AppointmentService) lockDay(ctx context.Context, patientID, appointmentDate string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("schedule_lock:%s:%s", patientID, appointmentDate)
	value := uuid.New().String()

	for i := 0; i < scheduleLockRetries; i++ {
		locked, err := s.locker.Acquire(ctx, key, value, s.lockTTL)
		if err != nil {
			s.log.Warn("schedule lock unavailable", zap.String("key", key), zap.Error(err))
			return noop, nil
		}
		if locked {
			return func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, value); err != nil {
					s.log.Warn("failed to release schedule lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if i < scheduleLockRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(scheduleLockDelay):
			}
		}
	}

	return nil, newValidationError("schedule", "another booking for this patient and day is in progress")
}

func (s *AppointmentService) translateWriteError(err error) error {
	if errors.Is(err, repositories.ErrDuplicateSchedule) {
		s.metrics.ScheduleRejections.WithLabelValues(rejectionLabel(ReasonSameDay)).Inc()
		return newValidationError("schedule", ReasonSameDay)
	}
	return err
}

func bookingPatient(caller models.Caller, requested string) (string, error) {
	switch c := caller.(type) {
	case models.PatientCaller:
		if requested != "" && requested != c.ID {
			return "", &AccessDeniedError{Reason: "patients may only book for themselves"}
		}
		return c.ID, nil
	case models.ProviderCaller:
		if strings.TrimSpace(requested) == "" {
			return "", newValidationError("patient_id", "is required")
		}
		return requested, nil
	default:
		return "", ErrAuthenticationRequired
	}
}

// statusChangeAudited reports whether moving from -> to is a transition the
// audit trail records.
func statusChangeAudited(from, to models.AppointmentStatus) bool {
	switch to {
	case models.StatusCheckedIn:
		return from != models.StatusCheckedIn
	case models.StatusAttending:
		return from == models.StatusCheckedIn
	case models.StatusNoShow:
		return from != models.StatusNoShow
	default:
		return false
	}
}

func rejectionLabel(reason string) string {
	switch reason {
	case ReasonSameDay:
		return "same_day"
	case ReasonClinicHours:
		return "clinic_hours"
	default:
		return "other"
	}
}

func indexOfSoapNote(notes []models.SoapNote, id uint) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}
