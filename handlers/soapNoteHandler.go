package handlers

import (
	"net/http"

	"CommClinic/middlewares"
	"CommClinic/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SoapNoteHandler struct {
	service SoapNoteService
	log     *zap.Logger
}

func NewSoapNoteHandler(service SoapNoteService, log *zap.Logger) *SoapNoteHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SoapNoteHandler{service: service, log: log}
}

func (h *SoapNoteHandler) CreateSoapNote(c *gin.Context) {
	appointmentID, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	var payload models.SoapNotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	note, err := h.service.Create(c.Request.Context(), middlewares.CallerFromContext(c), appointmentID, &payload)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, note, http.StatusCreated)
}

func (h *SoapNoteHandler) GetSoapNoteByID(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	note, err := h.service.Get(c.Request.Context(), middlewares.CallerFromContext(c), id)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, note, http.StatusOK)
}

func (h *SoapNoteHandler) UpdateSoapNote(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	var payload models.SoapNotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middlewares.HttpError(c, h.log, bindError(err))
		return
	}
	note, err := h.service.Update(c.Request.Context(), middlewares.CallerFromContext(c), id, &payload)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, note, http.StatusOK)
}

func (h *SoapNoteHandler) DeleteSoapNote(c *gin.Context) {
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
