package services

import (
	"CommClinic/models"
)

// Sensitive appointment fields, in the order they are checked.
const (
	FieldVitals               = "vitals"
	FieldSoapNote             = "soap_note"
	FieldAppointmentProviders = "appointment_providers"
	FieldFollowUp             = "follow_up"
	FieldStatus               = "status"
)

// AuthorizeView decides whether caller may see appointment.
func AuthorizeView(appointment *models.Appointment, caller models.Caller) error {
	switch c := caller.(type) {
	case models.PatientCaller:
		if appointment.PatientID == c.ID {
			return nil
		}
		return &AccessDeniedError{Reason: "patients may only view their own appointments"}
	case models.ProviderCaller:
		if c.RoleTitle.CanManageAll() || appointment.HasProvider(c.ID) {
			return nil
		}
		return &AccessDeniedError{Reason: "provider is not assigned to this appointment"}
	default:
		return &AccessDeniedError{Reason: "no recognized caller"}
	}
}

// CanWriteSensitive reports whether caller may write clinical fields.
func CanWriteSensitive(caller models.Caller) bool {
	c, ok := caller.(models.ProviderCaller)
	return ok && c.RoleTitle.IsRecognized()
}

// SensitiveFieldsIn lists the sensitive fields present in payload.
func SensitiveFieldsIn(payload *models.AppointmentPayload) []string {
	var fields []string
	if payload.Vitals != nil {
		fields = append(fields, FieldVitals)
	}
	if payload.SoapNote != nil {
		fields = append(fields, FieldSoapNote)
	}
	if payload.AppointmentProviders != nil {
		fields = append(fields, FieldAppointmentProviders)
	}
	if payload.FollowUp != nil {
		fields = append(fields, FieldFollowUp)
	}
	if payload.Status != nil {
		fields = append(fields, FieldStatus)
	}
	return fields
}

// AuthorizeSensitiveFields rejects the first sensitive field in payload the
// caller may not write. It does not look at or change field values.
func AuthorizeSensitiveFields(caller models.Caller, payload *models.AppointmentPayload) error {
	fields := SensitiveFieldsIn(payload)
	if len(fields) == 0 || CanWriteSensitive(caller) {
		return nil
	}
	return &ForbiddenError{Field: fields[0]}
}

// NestedWrites is the normalized form of the sensitive parts of a payload:
// records ready to be attached to an appointment.
type NestedWrites struct {
	Vitals        *models.Vitals
	SoapNote      *models.SoapNotePayload
	SoapNoteEvent *models.Event
	Providers     []models.AppointmentProvider
}

// NormalizeSensitiveFields builds nested-create records from an authorized
// payload. The payload is not modified; SOAP sections are deep-copied.
func NormalizeSensitiveFields(caller models.Caller, payload *models.AppointmentPayload) NestedWrites {
	var out NestedWrites
	actorID := caller.CallerID()

	if payload.Vitals != nil {
		out.Vitals = BuildVitals(payload.Vitals, actorID)
	}

	if payload.SoapNote != nil {
		note := models.SoapNotePayload{
			Subjective: payload.SoapNote.Subjective.Clone(),
			Objective:  payload.SoapNote.Objective.Clone(),
			Assessment: payload.SoapNote.Assessment.Clone(),
			Plan:       payload.SoapNote.Plan.Clone(),
		}
		eventType := models.EventSoapNoteRecorded
		if payload.SoapNote.ID != nil {
			id := *payload.SoapNote.ID
			note.ID = &id
			eventType = models.EventSoapNoteUpdated
		}
		out.SoapNote = &note
		out.SoapNoteEvent = &models.Event{Type: eventType, CreatedByID: actorID}
	}

	if len(payload.AppointmentProviders) > 0 {
		out.Providers = make([]models.AppointmentProvider, 0, len(payload.AppointmentProviders))
		for _, ap := range payload.AppointmentProviders {
			out.Providers = append(out.Providers, models.AppointmentProvider{
				ProviderID: ap.ProviderID,
				IsPrimary:  ap.IsPrimary,
			})
		}
	}

	return out
}
