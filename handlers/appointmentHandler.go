package handlers

import (
	"net/http"

	"CommClinic/middlewares"
	"CommClinic/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	service AppointmentService
	log     *zap.Logger
}

func NewAppointmentHandler(service AppointmentService, log *zap.Logger) *AppointmentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AppointmentHandler{service: service, log: log}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var payload models.AppointmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	appointment, err := h.service.Create(c.Request.Context(), middlewares.CallerFromContext(c), &payload)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusCreated)
}

func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	appointments, err := h.service.List(c.Request.Context(), middlewares.CallerFromContext(c))
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}
	middlewares.RespondJSON(c, appointments, http.StatusOK)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	appointment, err := h.service.Get(c.Request.Context(), middlewares.CallerFromContext(c), id)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	var payload models.AppointmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	appointment, err := h.service.Update(c.Request.Context(), middlewares.CallerFromContext(c), id, &payload)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusOK)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), middlewares.CallerFromContext(c), id); err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignProvider answers 201 when the provider was attached and 200 when the
// appointment already had one.
func (h *AppointmentHandler) AssignProvider(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	var payload models.AssignProviderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	appointment, alreadyAssigned, err := h.service.AssignProvider(c.Request.Context(), middlewares.CallerFromContext(c), id, payload.ProviderID)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	if alreadyAssigned {
		middlewares.RespondJSON(c, gin.H{"message": "Provider already assigned", "appointment": appointment}, http.StatusOK)
		return
	}
	middlewares.RespondJSON(c, appointment, http.StatusCreated)
}

func (h *AppointmentHandler) RecordVitals(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	var payload models.VitalsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	vitals, created, err := h.service.RecordVitals(c.Request.Context(), middlewares.CallerFromContext(c), id, &payload)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middlewares.RespondJSON(c, vitals, status)
}

func (h *AppointmentHandler) GetAppointmentEvents(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	events, err := h.service.ListEvents(c.Request.Context(), middlewares.CallerFromContext(c), id)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	middlewares.RespondJSON(c, events, http.StatusOK)
}
