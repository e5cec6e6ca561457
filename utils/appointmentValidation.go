package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"CommClinic/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrOtherPurposeRequired   = errors.New("is required when purposes include OTHERS")
	ErrOtherPurposeNotAllowed = errors.New("must be empty unless purposes include OTHERS")
	ErrReferralNameRequired   = errors.New("is required when has_referral is true")
	ErrReferralNameNotAllowed = errors.New("must be empty when has_referral is false")

	bloodPressurePattern = regexp.MustCompile(`^\d{2,3}/\d{2,3}$`)
)

func dateRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := models.ParseScheduleDate(s, nil); err != nil {
		return errors.New("must be a valid date in YYYY-MM-DD format")
	}
	return nil
}

func timeRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := models.ParseScheduleTime(s); err != nil {
		return errors.New("must be a valid time in HH:mm or HH:mm:ss format")
	}
	return nil
}

func purposeRule(value interface{}) error {
	p, _ := value.(models.Purpose)
	if !p.IsValid() {
		return errors.New("must be a recognized purpose")
	}
	return nil
}

func statusIn() validation.Rule {
	allowed := make([]interface{}, 0, len(models.AppointmentStatuses))
	for _, s := range models.AppointmentStatuses {
		allowed = append(allowed, s)
	}
	return validation.In(allowed...).Error("must be a recognized appointment status")
}

// ValidateSchedule checks a submitted schedule. A partial schedule (update
// path) may omit either field. One carrying only schedule_count is treated as
// no schedule change; the count itself is server-maintained.
func ValidateSchedule(schedule *models.SchedulePayload, partial bool) error {
	if schedule == nil {
		return nil
	}
	err := validation.ValidateStruct(schedule,
		validation.Field(&schedule.AppointmentDate, validation.When(!partial, validation.Required), validation.By(dateRule)),
		validation.Field(&schedule.AppointmentTime, validation.When(!partial, validation.Required), validation.By(timeRule)),
	)
	if err != nil {
		return err
	}
	if partial && schedule.AppointmentDate == "" && schedule.AppointmentTime == "" && schedule.ScheduleCount == nil {
		return validation.Errors{"appointment_date": validation.ErrRequired}
	}
	return nil
}

// ValidatePurposes enforces the OTHERS / other_purpose pairing.
func ValidatePurposes(purposes []models.Purpose, otherPurpose string) error {
	if err := validation.Validate(purposes, validation.Required, validation.Each(validation.By(purposeRule))); err != nil {
		return validation.Errors{"purposes": err}
	}
	hasOthers := false
	for _, p := range purposes {
		if p == models.PurposeOthers {
			hasOthers = true
			break
		}
	}
	switch {
	case hasOthers && strings.TrimSpace(otherPurpose) == "":
		return validation.Errors{"other_purpose": ErrOtherPurposeRequired}
	case !hasOthers && otherPurpose != "":
		return validation.Errors{"other_purpose": ErrOtherPurposeNotAllowed}
	}
	return nil
}

// ValidateVitals checks measurement ranges. Blood pressure, heart rate and
// temperature are mandatory; a zero in any other field means "not measured".
func ValidateVitals(vitals *models.VitalsPayload) error {
	return validation.ValidateStruct(vitals,
		validation.Field(&vitals.BloodPressure, validation.Required, validation.Match(bloodPressurePattern).Error("must look like 120/80")),
		validation.Field(&vitals.HeartRate, validation.Required, validation.Min(20), validation.Max(300)),
		validation.Field(&vitals.Temperature, validation.Required, validation.Min(25.0), validation.Max(45.0)),
		validation.Field(&vitals.RespiratoryRate, validation.Min(0), validation.Max(80)),
		validation.Field(&vitals.OxygenSaturation, validation.Min(0), validation.Max(100)),
		validation.Field(&vitals.Height, validation.Min(0.0), validation.Max(300.0)),
		validation.Field(&vitals.Weight, validation.Min(0.0), validation.Max(700.0)),
	)
}

// ValidateSoapSections checks the four sections of a note after the derived
// fields (vitals summary, purposes) have been filled in.
func ValidateSoapSections(subjective models.Subjective, objective models.Objective, assessment models.Assessment, plan models.Plan) error {
	errs := validation.Errors{}

	if err := validation.ValidateStruct(&subjective,
		validation.Field(&subjective.Symptoms, validation.Required),
		validation.Field(&subjective.PurposeOfAppointment, validation.Required, validation.Each(validation.By(purposeRule))),
	); err != nil {
		errs["subjective"] = err
	}

	if err := validation.ValidateStruct(&objective,
		validation.Field(&objective.PhysicalExamReport, validation.Required),
		validation.Field(&objective.VitalsSummary, validation.NotNil),
	); err != nil {
		errs["objective"] = err
	}

	if err := validation.ValidateStruct(&assessment,
		validation.Field(&assessment.Diagnosis, validation.Required),
	); err != nil {
		errs["assessment"] = err
	}

	switch {
	case plan.HasReferral && strings.TrimSpace(plan.ReferredProviderName) == "":
		errs["plan"] = validation.Errors{"referred_provider_name": ErrReferralNameRequired}
	case !plan.HasReferral && plan.ReferredProviderName != "":
		errs["plan"] = validation.Errors{"referred_provider_name": ErrReferralNameNotAllowed}
	}

	return errs.Filter()
}

// ValidateAppointmentPayload checks field formats. Cross-field rules that
// depend on stored state (purpose pairing after a merge, insurance) are
// checked by the caller.
func ValidateAppointmentPayload(payload *models.AppointmentPayload, creating bool) error {
	errs := validation.Errors{}

	if creating && payload.Schedule == nil {
		errs["schedule"] = validation.ErrRequired
	} else if err := ValidateSchedule(payload.Schedule, !creating); err != nil {
		errs["schedule"] = err
	}

	if creating || payload.Purposes != nil {
		if err := validation.Validate(payload.Purposes, validation.Required, validation.Each(validation.By(purposeRule))); err != nil {
			errs["purposes"] = err
		}
	}

	if payload.Status != nil {
		if err := validation.Validate(*payload.Status, statusIn()); err != nil {
			errs["status"] = err
		}
	}

	if payload.Vitals != nil {
		if err := ValidateVitals(payload.Vitals); err != nil {
			errs["vitals"] = err
		}
	}

	for i, ap := range payload.AppointmentProviders {
		if strings.TrimSpace(ap.ProviderID) == "" {
			errs["appointment_providers"] = validation.Errors{
				"provider_id": errors.New("is required for entry " + strconv.Itoa(i)),
			}
			break
		}
	}

	return errs.Filter()
}
