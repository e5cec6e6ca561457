package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Vitals model
type Vitals struct {
	ID               uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AppointmentID    uint      `gorm:"column:appointment_id;not null;uniqueIndex" json:"appointment_id"`
	BloodPressure    string    `gorm:"column:blood_pressure" json:"blood_pressure"`
	HeartRate        int       `gorm:"column:heart_rate" json:"heart_rate"`
	Temperature      float64   `gorm:"column:temperature" json:"temperature"`
	RespiratoryRate  int       `gorm:"column:respiratory_rate" json:"respiratory_rate,omitempty"`
	OxygenSaturation int       `gorm:"column:oxygen_saturation" json:"oxygen_saturation,omitempty"`
	Height           float64   `gorm:"column:height" json:"height"`
	Weight           float64   `gorm:"column:weight" json:"weight"`
	CreatedByID      string    `gorm:"column:created_by_id;not null" json:"created_by_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Vitals) TableName() string {
	return "vitals"
}

// VitalsSummary is the measurement snapshot copied into a SOAP note.
type VitalsSummary struct {
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate"`
	Temperature      float64 `json:"temperature"`
	RespiratoryRate  int     `json:"respiratory_rate,omitempty"`
	OxygenSaturation int     `json:"oxygen_saturation,omitempty"`
	Height           float64 `json:"height"`
	Weight           float64 `json:"weight"`
}

func (v Vitals) Summary() VitalsSummary {
	return VitalsSummary{
		BloodPressure:    v.BloodPressure,
		HeartRate:        v.HeartRate,
		Temperature:      v.Temperature,
		RespiratoryRate:  v.RespiratoryRate,
		OxygenSaturation: v.OxygenSaturation,
		Height:           v.Height,
		Weight:           v.Weight,
	}
}

type Subjective struct {
	Symptoms             []string  `json:"symptoms"`
	PurposeOfAppointment []Purpose `json:"purpose_of_appointment"`
	Others               string    `json:"others,omitempty"`
}

type Objective struct {
	PhysicalExamReport string         `json:"physical_exam_report"`
	VitalsSummary      *VitalsSummary `json:"vitals_summary"`
	Labs               string         `json:"labs,omitempty"`
	Others             string         `json:"others,omitempty"`
}

type Assessment struct {
	Diagnosis    string `json:"diagnosis"`
	Preferential string `json:"preferential,omitempty"`
}

type Plan struct {
	Prescription         string   `json:"prescription,omitempty"`
	TestRequests         []string `json:"test_requests,omitempty"`
	Recommendation       string   `json:"recommendation,omitempty"`
	HasReferral          bool     `json:"has_referral"`
	ReferredProviderName string   `json:"referred_provider_name,omitempty"`
	Others               string   `json:"others,omitempty"`
}

func (s Subjective) Clone() Subjective {
	out := s
	out.Symptoms = append([]string(nil), s.Symptoms...)
	out.PurposeOfAppointment = append([]Purpose(nil), s.PurposeOfAppointment...)
	return out
}

func (o Objective) Clone() Objective {
	out := o
	if o.VitalsSummary != nil {
		summary := *o.VitalsSummary
		out.VitalsSummary = &summary
	}
	return out
}

func (a Assessment) Clone() Assessment {
	return a
}

func (p Plan) Clone() Plan {
	out := p
	out.TestRequests = append([]string(nil), p.TestRequests...)
	return out
}

// The four sections are stored as jsonb columns.

func (s Subjective) Value() (driver.Value, error) { return jsonValue(s) }

func (s *Subjective) Scan(src interface{}) error { return jsonScan(src, s) }

func (o Objective) Value() (driver.Value, error) { return jsonValue(o) }

func (o *Objective) Scan(src interface{}) error { return jsonScan(src, o) }

func (a Assessment) Value() (driver.Value, error) { return jsonValue(a) }

func (a *Assessment) Scan(src interface{}) error { return jsonScan(src, a) }

func (p Plan) Value() (driver.Value, error) { return jsonValue(p) }

func (p *Plan) Scan(src interface{}) error { return jsonScan(src, p) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// SoapNote model
type SoapNote struct {
	ID            uint       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	AppointmentID uint       `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	Subjective    Subjective `gorm:"column:subjective;type:jsonb;not null" json:"subjective"`
	Objective     Objective  `gorm:"column:objective;type:jsonb;not null" json:"objective"`
	Assessment    Assessment `gorm:"column:assessment;type:jsonb;not null" json:"assessment"`
	Plan          Plan       `gorm:"column:plan;type:jsonb;not null" json:"plan"`
	CreatedByID   string     `gorm:"column:created_by_id;not null" json:"created_by_id"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SoapNote) TableName() string {
	return "soap_notes"
}
