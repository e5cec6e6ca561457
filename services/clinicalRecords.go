package services

import (
	"CommClinic/models"
	"CommClinic/utils"
)

// BuildVitals turns a validated payload into a vitals record. Vitals are only
// ever persisted through an appointment.
func BuildVitals(payload *models.VitalsPayload, createdByID string) *models.Vitals {
	return &models.Vitals{
		BloodPressure:    payload.BloodPressure,
		HeartRate:        payload.HeartRate,
		Temperature:      payload.Temperature,
		RespiratoryRate:  payload.RespiratoryRate,
		OxygenSaturation: payload.OxygenSaturation,
		Height:           payload.Height,
		Weight:           payload.Weight,
		CreatedByID:      createdByID,
	}
}

func applyVitals(dst *models.Vitals, payload *models.VitalsPayload) {
	dst.BloodPressure = payload.BloodPressure
	dst.HeartRate = payload.HeartRate
	dst.Temperature = payload.Temperature
	dst.RespiratoryRate = payload.RespiratoryRate
	dst.OxygenSaturation = payload.OxygenSaturation
	dst.Height = payload.Height
	dst.Weight = payload.Weight
}

// BuildSoapNote derives a SOAP note for appointment from payload.
//
// The objective vitals summary is copied from vitals and the subjective
// purposes from the appointment. A caller-supplied value for either must match
// what is on record. All sections are deep-copied so the note shares no
// mutable state with payload.
func BuildSoapNote(appointment *models.Appointment, vitals *models.Vitals, payload *models.SoapNotePayload, createdByID string) (*models.SoapNote, error) {
	if vitals == nil {
		return nil, &DomainError{Message: "vitals not found for appointment"}
	}

	subjective := payload.Subjective.Clone()
	objective := payload.Objective.Clone()
	assessment := payload.Assessment.Clone()
	plan := payload.Plan.Clone()

	summary := vitals.Summary()
	if objective.VitalsSummary != nil && *objective.VitalsSummary != summary {
		return nil, newValidationError("objective.vitals_summary", "does not match the vitals recorded for this appointment")
	}
	objective.VitalsSummary = &summary

	purposes := appointment.PurposeList()
	if len(subjective.PurposeOfAppointment) > 0 && !samePurposes(subjective.PurposeOfAppointment, purposes) {
		return nil, newValidationError("subjective.purpose_of_appointment", "does not match the appointment purposes")
	}
	subjective.PurposeOfAppointment = purposes

	if err := utils.ValidateSoapSections(subjective, objective, assessment, plan); err != nil {
		return nil, err
	}

	return &models.SoapNote{
		AppointmentID: appointment.ID,
		Subjective:    subjective,
		Objective:     objective,
		Assessment:    assessment,
		Plan:          plan,
		CreatedByID:   createdByID,
	}, nil
}

// samePurposes compares two purpose lists as sets.
func samePurposes(a, b []models.Purpose) bool {
	seenA := make(map[models.Purpose]bool, len(a))
	for _, p := range a {
		seenA[p] = true
	}
	seenB := make(map[models.Purpose]bool, len(b))
	for _, p := range b {
		seenB[p] = true
	}
	if len(seenA) != len(seenB) {
		return false
	}
	for p := range seenA {
		if !seenB[p] {
			return false
		}
	}
	return true
}
