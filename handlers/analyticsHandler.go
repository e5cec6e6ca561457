package handlers

import (
	"net/http"

	"CommClinic/middlewares"
	"CommClinic/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service AnalyticsService
	log     *zap.Logger
}

func NewAnalyticsHandler(service AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsHandler{service: service, log: log}
}

// GetAverageWaitTime returns one provider's average when provider_id is
// given, otherwise the average of every provider with assignments.
func (h *AnalyticsHandler) GetAverageWaitTime(c *gin.Context) {
	caller := middlewares.CallerFromContext(c)
	providerID := c.Query("provider_id")

	if providerID == "" {
		waits, err := h.service.AverageWaitTimes(c.Request.Context(), caller)
		if err != nil {
			middlewares.HttpError(c, h.log, err)
			return
		}
		if waits == nil {
			waits = []services.ProviderWaitTime{}
		}
		middlewares.RespondJSON(c, waits, http.StatusOK)
		return
	}

	avg, err := h.service.AverageWaitTime(c.Request.Context(), caller, providerID)
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, services.ProviderWaitTime{ProviderID: providerID, AverageMinutes: avg}, http.StatusOK)
}

func (h *AnalyticsHandler) GetNoShowRate(c *gin.Context) {
	report, err := h.service.NoShowRate(c.Request.Context(), middlewares.CallerFromContext(c),
		c.Query("provider_id"), c.Query("patient_id"))
	if err != nil {
		middlewares.HttpError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, report, http.StatusOK)
}
