package models

// Request payloads bound from JSON. Pointer fields distinguish "absent" from
// "zero" so partial updates only touch what the caller sent.

type SchedulePayload struct {
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	// Accepted for compatibility with clients that echo the whole schedule back; never trusted.
	ScheduleCount *int `json:"schedule_count,omitempty"`
}

type FollowUpPayload struct {
	IsFollowUpRequired bool  `json:"is_follow_up_required"`
	FollowUpID         *uint `json:"follow_up_id,omitempty"`
}

type VitalsPayload struct {
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate"`
	Temperature      float64 `json:"temperature"`
	RespiratoryRate  int     `json:"respiratory_rate,omitempty"`
	OxygenSaturation int     `json:"oxygen_saturation,omitempty"`
	Height           float64 `json:"height"`
	Weight           float64 `json:"weight"`
}

type SoapNotePayload struct {
	// ID selects an existing note of the appointment to revise.
	ID         *uint      `json:"id,omitempty"`
	Subjective Subjective `json:"subjective"`
	Objective  Objective  `json:"objective"`
	Assessment Assessment `json:"assessment"`
	Plan       Plan       `json:"plan"`
}

type ProviderAssignmentPayload struct {
	ProviderID string `json:"provider_id"`
	IsPrimary  bool   `json:"is_primary"`
}

type AppointmentPayload struct {
	PatientID            string                      `json:"patient_id,omitempty"`
	Schedule             *SchedulePayload            `json:"schedule,omitempty"`
	Purposes             []Purpose                   `json:"purposes,omitempty"`
	OtherPurpose         *string                     `json:"other_purpose,omitempty"`
	HasInsurance         *bool                       `json:"has_insurance,omitempty"`
	Status               *AppointmentStatus          `json:"status,omitempty"`
	FollowUp             *FollowUpPayload            `json:"follow_up,omitempty"`
	Vitals               *VitalsPayload              `json:"vitals,omitempty"`
	SoapNote             *SoapNotePayload            `json:"soap_note,omitempty"`
	AppointmentProviders []ProviderAssignmentPayload `json:"appointment_providers,omitempty"`
}

type AssignProviderPayload struct {
	ProviderID string `json:"provider_id"`
}
