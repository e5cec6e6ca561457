package handlers

import (
	"context"
	"strconv"

	"CommClinic/models"
	"CommClinic/services"

	"github.com/gin-gonic/gin"
)

// AppointmentService is the part of the lifecycle manager the HTTP layer uses.
type AppointmentService interface {
	Create(ctx context.Context, caller models.Caller, payload *models.AppointmentPayload) (*models.Appointment, error)
	Get(ctx context.Context, caller models.Caller, id uint) (*models.Appointment, error)
	List(ctx context.Context, caller models.Caller) ([]models.Appointment, error)
	Update(ctx context.Context, caller models.Caller, id uint, payload *models.AppointmentPayload) (*models.Appointment, error)
	Delete(ctx context.Context, caller models.Caller, id uint) error
	AssignProvider(ctx context.Context, caller models.Caller, appointmentID uint, providerID string) (*models.Appointment, bool, error)
	RecordVitals(ctx context.Context, caller models.Caller, appointmentID uint, payload *models.VitalsPayload) (*models.Vitals, bool, error)
	ListEvents(ctx context.Context, caller models.Caller, appointmentID uint) ([]models.Event, error)
}

type SoapNoteService interface {
	Create(ctx context.Context, caller models.Caller, appointmentID uint, payload *models.SoapNotePayload) (*models.SoapNote, error)
	Get(ctx context.Context, caller models.Caller, id uint) (*models.SoapNote, error)
	Update(ctx context.Context, caller models.Caller, id uint, payload *models.SoapNotePayload) (*models.SoapNote, error)
	Delete(ctx context.Context, caller models.Caller, id uint) error
}

type AnalyticsService interface {
	AverageWaitTime(ctx context.Context, caller models.Caller, providerID string) (*float64, error)
	AverageWaitTimes(ctx context.Context, caller models.Caller) ([]services.ProviderWaitTime, error)
	NoShowRate(ctx context.Context, caller models.Caller, providerID, patientID string) (*services.NoShowReport, error)
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, &services.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return uint(id), nil
}

func bindError(err error) error {
	return &services.ValidationError{Field: "body", Message: err.Error()}
}
