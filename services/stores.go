package services

import (
	"context"
	"time"

	"CommClinic/models"
)

// AppointmentStore persists appointments together with their vitals, SOAP
// notes and provider assignments. Lookups return (nil, nil) when nothing
// matches.
type AppointmentStore interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	ListActiveSince(ctx context.Context, since time.Time) ([]models.Appointment, error)
	ListAssignedProviderIDs(ctx context.Context) ([]string, error)
	FindSameDay(ctx context.Context, patientID, appointmentDate string, excludeID uint) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, id uint) error
	// AssignProvider adds the first provider to an appointment and resets its
	// status to SCHEDULED in one transaction. It reports true, without
	// writing, when any provider is already assigned.
	AssignProvider(ctx context.Context, appointmentID uint, providerID string) (bool, error)
	SaveVitals(ctx context.Context, vitals *models.Vitals) error
}

type SoapNoteStore interface {
	Create(ctx context.Context, note *models.SoapNote) error
	GetByID(ctx context.Context, id uint) (*models.SoapNote, error)
	Update(ctx context.Context, note *models.SoapNote) error
	Delete(ctx context.Context, note *models.SoapNote) error
}

// EventStore is append-only.
type EventStore interface {
	Append(ctx context.Context, event *models.Event) error
	ListByAppointment(ctx context.Context, appointmentID uint) ([]models.Event, error)
	ListStatusChanges(ctx context.Context, appointmentIDs []uint) ([]models.Event, error)
}

type PatientStore interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

type ProviderStore interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
}

// ScheduleLocker serializes bookings for one patient and day across API
// instances.
type ScheduleLocker interface {
	Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}
