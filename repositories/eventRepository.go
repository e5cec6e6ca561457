package repositories

import (
	"context"
	"fmt"

	"CommClinic/models"

	"gorm.io/gorm"
)

// EventRepository reads and appends appointment_events. Rows are never
// updated or deleted; the model hooks refuse both.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListByAppointment(ctx context.Context, appointmentID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListStatusChanges returns the CHECKED_IN and ATTENDING transitions of the
// given appointments.
func (r *EventRepository) ListStatusChanges(ctx context.Context, appointmentIDs []uint) ([]models.Event, error) {
	if len(appointmentIDs) == 0 {
		return nil, nil
	}
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("type = ? AND appointment_id IN ? AND status IN ?",
			models.EventAppointmentStatusChanged,
			appointmentIDs,
			[]models.AppointmentStatus{models.StatusCheckedIn, models.StatusAttending},
		).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list status changes: %w", err)
	}
	return events, nil
}
