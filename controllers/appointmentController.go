package controllers

import (
	"CommClinic/handlers"
	"CommClinic/middlewares"
	"CommClinic/models"

	"github.com/gin-gonic/gin"
)

type AppointmentController struct {
	Appointments *handlers.AppointmentHandler
	SoapNotes    *handlers.SoapNoteHandler
	Analytics    *handlers.AnalyticsHandler
}

func NewAppointmentController(appointments *handlers.AppointmentHandler, soapNotes *handlers.SoapNoteHandler, analytics *handlers.AnalyticsHandler) *AppointmentController {
	return &AppointmentController{
		Appointments: appointments,
		SoapNotes:    soapNotes,
		Analytics:    analytics,
	}
}

// RegisterRoutes mounts the scheduling and clinical record routes on router.
// Every route expects the caller to have been resolved already.
func (ac *AppointmentController) RegisterRoutes(router gin.IRouter) {
	appointments := router.Group("/appointments")
	{
		appointments.POST("", ac.Appointments.CreateAppointment)
		appointments.GET("", ac.Appointments.GetAllAppointments)
		appointments.GET("/:id", ac.Appointments.GetAppointmentByID)
		appointments.PATCH("/:id", ac.Appointments.UpdateAppointment)
		appointments.DELETE("/:id", ac.Appointments.DeleteAppointment)
		appointments.POST("/:id/providers", ac.Appointments.AssignProvider)
		appointments.POST("/:id/vitals", ac.Appointments.RecordVitals)
		appointments.GET("/:id/events", ac.Appointments.GetAppointmentEvents)
		appointments.POST("/:id/soap-notes", ac.SoapNotes.CreateSoapNote)
	}

	soapNotes := router.Group("/soap-notes")
	{
		soapNotes.GET("/:id", ac.SoapNotes.GetSoapNoteByID)
		soapNotes.PUT("/:id", ac.SoapNotes.UpdateSoapNote)
		soapNotes.DELETE("/:id", ac.SoapNotes.DeleteSoapNote)
	}

	analytics := router.Group("/analytics").Use(middlewares.RequireKind(models.KindProvider))
	{
		analytics.GET("/wait-time", ac.Analytics.GetAverageWaitTime)
		analytics.GET("/no-show-rate", ac.Analytics.GetNoShowRate)
	}
}
