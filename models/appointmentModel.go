package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "SCHEDULED"
	StatusCheckedIn   AppointmentStatus = "CHECKED_IN"
	StatusAttending   AppointmentStatus = "ATTENDING"
	StatusNoShow      AppointmentStatus = "NO_SHOW"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
	StatusCompleted   AppointmentStatus = "COMPLETED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
)

// AppointmentStatuses lists every status accepted at validation time.
var AppointmentStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusCheckedIn,
	StatusAttending,
	StatusNoShow,
	StatusRescheduled,
	StatusCompleted,
	StatusCancelled,
}

func (s AppointmentStatus) IsValid() bool {
	for _, status := range AppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Purpose tags why the patient is booking.
type Purpose string

const (
	PurposeConsultation       Purpose = "CONSULTATION"
	PurposeFollowUp           Purpose = "FOLLOW_UP"
	PurposeRoutineCheckup     Purpose = "ROUTINE_CHECKUP"
	PurposeImmunization       Purpose = "IMMUNIZATION"
	PurposeLabTest            Purpose = "LAB_TEST"
	PurposePrescriptionRefill Purpose = "PRESCRIPTION_REFILL"
	PurposeAntenatalCare      Purpose = "ANTENATAL_CARE"
	PurposeFamilyPlanning     Purpose = "FAMILY_PLANNING"
	PurposeOthers             Purpose = "OTHERS"
)

var Purposes = []Purpose{
	PurposeConsultation,
	PurposeFollowUp,
	PurposeRoutineCheckup,
	PurposeImmunization,
	PurposeLabTest,
	PurposePrescriptionRefill,
	PurposeAntenatalCare,
	PurposeFamilyPlanning,
	PurposeOthers,
}

func (p Purpose) IsValid() bool {
	for _, purpose := range Purposes {
		if p == purpose {
			return true
		}
	}
	return false
}

const (
	ScheduleDateLayout = "2006-01-02"
	scheduleTimeLayout = "15:04"
	scheduleTimeSecond = "15:04:05"
)

var scheduleTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// ErrInvalidSchedule is returned when a stored or submitted schedule cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Schedule is stored as three columns on the appointment row.
// ScheduleCount is server-maintained and only grows when the appointment is rescheduled.
type Schedule struct {
	AppointmentDate string `gorm:"column:appointment_date;type:varchar(10);not null;uniqueIndex:idx_appointment_patient_day,priority:2" json:"appointment_date"`
	AppointmentTime string `gorm:"column:appointment_time;type:varchar(8);not null" json:"appointment_time"`
	ScheduleCount   int    `gorm:"column:schedule_count;not null;default:0" json:"schedule_count"`
}

// ParseScheduleTime accepts HH:mm or HH:mm:ss.
func ParseScheduleTime(value string) (time.Time, error) {
	if !scheduleTimePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%w: time %q must be HH:mm or HH:mm:ss", ErrInvalidSchedule, value)
	}
	layout := scheduleTimeLayout
	if len(value) == len(scheduleTimeSecond) {
		layout = scheduleTimeSecond
	}
	return time.Parse(layout, value)
}

// ParseScheduleDate accepts YYYY-MM-DD.
func ParseScheduleDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(ScheduleDateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidSchedule, value)
	}
	return day, nil
}

// StartsAt combines date and time into a single instant in loc.
func (s Schedule) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := ParseScheduleDate(s.AppointmentDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := ParseScheduleTime(s.AppointmentTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location()), nil
}

// AppointmentProvider joins an appointment to a provider.
type AppointmentProvider struct {
	ID            uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AppointmentID uint      `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	ProviderID    string    `gorm:"column:provider_id;not null;index" json:"provider_id"`
	IsPrimary     bool      `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AppointmentProvider) TableName() string {
	return "appointment_providers"
}

// Appointment model
type Appointment struct {
	ID                   uint                  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PatientID            string                `gorm:"column:patient_id;not null;index;uniqueIndex:idx_appointment_patient_day,priority:1" json:"patient_id"`
	Schedule             Schedule              `gorm:"embedded" json:"schedule"`
	Purposes             pq.StringArray        `gorm:"column:purposes;type:text[];not null" json:"purposes"`
	OtherPurpose         string                `gorm:"column:other_purpose" json:"other_purpose,omitempty"`
	Status               AppointmentStatus     `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	HasInsurance         bool                  `gorm:"column:has_insurance;not null;default:false" json:"has_insurance"`
	IsFollowUpRequired   bool                  `gorm:"column:is_follow_up_required;not null;default:false" json:"is_follow_up_required"`
	FollowUpID           *uint                 `gorm:"column:follow_up_id;index" json:"follow_up_id,omitempty"`
	CreatedByID          string                `gorm:"column:created_by_id" json:"created_by_id"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime;index" json:"updated_at"`
	Vitals               *Vitals               `gorm:"foreignKey:AppointmentID;references:ID" json:"vitals,omitempty"`
	SoapNotes            []SoapNote            `gorm:"foreignKey:AppointmentID;references:ID" json:"soap_notes,omitempty"`
	AppointmentProviders []AppointmentProvider `gorm:"foreignKey:AppointmentID;references:ID" json:"appointment_providers,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// PurposeList returns the stored purposes as typed tags.
func (a *Appointment) PurposeList() []Purpose {
	purposes := make([]Purpose, 0, len(a.Purposes))
	for _, p := range a.Purposes {
		purposes = append(purposes, Purpose(p))
	}
	return purposes
}

// SetPurposes replaces the stored purposes.
func (a *Appointment) SetPurposes(purposes []Purpose) {
	stored := make(pq.StringArray, 0, len(purposes))
	for _, p := range purposes {
		stored = append(stored, string(p))
	}
	a.Purposes = stored
}

// HasProvider reports whether providerID is assigned to the appointment.
func (a *Appointment) HasProvider(providerID string) bool {
	for _, ap := range a.AppointmentProviders {
		if ap.ProviderID == providerID {
			return true
		}
	}
	return false
}
