package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// EventType classifies an audit event.
type EventType string

const (
	EventAppointmentStatusChanged EventType = "APPOINTMENT_STATUS_CHANGED"
	EventVitalsRecorded           EventType = "VITALS_RECORDED"
	EventSoapNoteRecorded         EventType = "SOAP_NOTE_RECORDED"
	EventSoapNoteUpdated          EventType = "SOAP_NOTE_UPDATED"
)

var ErrImmutableEvent = errors.New("appointment events are append-only")

// Event is one entry of an appointment's audit trail. AppointmentID carries no
// foreign key so the trail survives a hard-deleted appointment.
type Event struct {
	ID            uint              `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Type          EventType         `gorm:"column:type;type:varchar(40);not null;index" json:"type"`
	AppointmentID uint              `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	Status        AppointmentStatus `gorm:"column:status;type:varchar(20)" json:"status,omitempty"`
	VitalsID      *uint             `gorm:"column:vitals_id" json:"vitals_id,omitempty"`
	SoapNoteID    *uint             `gorm:"column:soap_note_id" json:"soap_note_id,omitempty"`
	CreatedByID   string            `gorm:"column:created_by_id;not null" json:"created_by_id"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "appointment_events"
}

func (e *Event) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableEvent
}

func (e *Event) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableEvent
}
