package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CommClinic/models"
	"CommClinic/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAppointments struct {
	lastCaller   models.Caller
	lastID       uint
	lastPayload  *models.AppointmentPayload
	lastProvider string

	appointment     *models.Appointment
	vitalsCreated   bool
	alreadyAssigned bool
	err             error
}

func (s *stubAppointments) Create(_ context.Context, caller models.Caller, payload *models.AppointmentPayload) (*models.Appointment, error) {
	s.lastCaller, s.lastPayload = caller, payload
	return s.appointment, s.err
}

func (s *stubAppointments) Get(_ context.Context, caller models.Caller, id uint) (*models.Appointment, error) {
	s.lastCaller, s.lastID = caller, id
	return s.appointment, s.err
}

func (s *stubAppointments) List(_ context.Context, caller models.Caller) ([]models.Appointment, error) {
	s.lastCaller = caller
	if s.appointment == nil {
		return nil, s.err
	}
	return []models.Appointment{*s.appointment}, s.err
}

func (s *stubAppointments) Update(_ context.Context, caller models.Caller, id uint, payload *models.AppointmentPayload) (*models.Appointment, error) {
	s.lastCaller, s.lastID, s.lastPayload = caller, id, payload
	return s.appointment, s.err
}

func (s *stubAppointments) Delete(_ context.Context, caller models.Caller, id uint) error {
	s.lastCaller, s.lastID = caller, id
	return s.err
}

func (s *stubAppointments) AssignProvider(_ context.Context, caller models.Caller, id uint, providerID string) (*models.Appointment, bool, error) {
	s.lastCaller, s.lastID, s.lastProvider = caller, id, providerID
	return s.appointment, s.alreadyAssigned, s.err
}

func (s *stubAppointments) RecordVitals(_ context.Context, caller models.Caller, id uint, payload *models.VitalsPayload) (*models.Vitals, bool, error) {
	s.lastCaller, s.lastID = caller, id
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.Vitals{AppointmentID: id, BloodPressure: payload.BloodPressure}, s.vitalsCreated, nil
}

func (s *stubAppointments) ListEvents(_ context.Context, caller models.Caller, id uint) ([]models.Event, error) {
	s.lastCaller, s.lastID = caller, id
	return nil, s.err
}

type stubAnalytics struct {
	avg        *float64
	waits      []services.ProviderWaitTime
	report     *services.NoShowReport
	providerID string
	patientID  string
	err        error
}

func (s *stubAnalytics) AverageWaitTime(_ context.Context, _ models.Caller, providerID string) (*float64, error) {
	s.providerID = providerID
	return s.avg, s.err
}

func (s *stubAnalytics) AverageWaitTimes(context.Context, models.Caller) ([]services.ProviderWaitTime, error) {
	return s.waits, s.err
}

func (s *stubAnalytics) NoShowRate(_ context.Context, _ models.Caller, providerID, patientID string) (*services.NoShowReport, error) {
	s.providerID, s.patientID = providerID, patientID
	return s.report, s.err
}

var doctor = models.ProviderCaller{ID: "DR1", RoleTitle: models.RoleGeneralPractice}

// withCaller stands in for the token middleware.
func withCaller(caller models.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller != nil {
			c.Set("caller", caller)
		}
		c.Next()
	}
}

func newAppointmentRouter(t *testing.T, svc AppointmentService, caller models.Caller) *gin.Engine {
	h := NewAppointmentHandler(svc, zaptest.NewLogger(t))
	r := gin.New()
	r.Use(withCaller(caller))
	r.POST("/appointments", h.CreateAppointment)
	r.GET("/appointments", h.GetAllAppointments)
	r.GET("/appointments/:id", h.GetAppointmentByID)
	r.PATCH("/appointments/:id", h.UpdateAppointment)
	r.DELETE("/appointments/:id", h.DeleteAppointment)
	r.POST("/appointments/:id/providers", h.AssignProvider)
	r.POST("/appointments/:id/vitals", h.RecordVitals)
	r.GET("/appointments/:id/events", h.GetAppointmentEvents)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAppointment(t *testing.T) {
	svc := &stubAppointments{appointment: &models.Appointment{ID: 4, PatientID: "P001"}}
	r := newAppointmentRouter(t, svc, doctor)

	w := do(r, http.MethodPost, "/appointments",
		`{"patient_id":"P001","schedule":{"appointment_date":"2024-02-10","appointment_time":"09:00"},"purposes":["CONSULTATION"]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, doctor, svc.lastCaller)
	require.NotNil(t, svc.lastPayload.Schedule)
	assert.Equal(t, "2024-02-10", svc.lastPayload.Schedule.AppointmentDate)
	assert.Equal(t, []models.Purpose{models.PurposeConsultation}, svc.lastPayload.Purposes)
}

func TestCreateAppointment_MalformedBody(t *testing.T) {
	svc := &stubAppointments{}
	w := do(newAppointmentRouter(t, svc, doctor), http.MethodPost, "/appointments", `{"schedule":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastPayload)
}

func TestCreateAppointment_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "same day", err: &services.ValidationError{Field: "schedule", Message: "appointment already exists for this day."}, status: http.StatusBadRequest},
		{name: "sensitive field", err: &services.ForbiddenError{Field: "vitals"}, status: http.StatusForbidden},
		{name: "no caller", err: services.ErrAuthenticationRequired, status: http.StatusUnauthorized},
		{name: "unknown patient", err: &services.NotFoundError{Resource: "patient", ID: "P404"}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAppointments{err: tt.err}
			w := do(newAppointmentRouter(t, svc, doctor), http.MethodPost, "/appointments", `{}`)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetAppointment_BadID(t *testing.T) {
	svc := &stubAppointments{}
	r := newAppointmentRouter(t, svc, doctor)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/appointments/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/appointments/0", "").Code)
	assert.Nil(t, svc.lastCaller, "service must not be called")
}

func TestGetAppointment_PassesID(t *testing.T) {
	svc := &stubAppointments{appointment: &models.Appointment{ID: 12}}
	w := do(newAppointmentRouter(t, svc, doctor), http.MethodGet, "/appointments/12", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(12), svc.lastID)
}

func TestListAppointments_EmptyIsArray(t *testing.T) {
	w := do(newAppointmentRouter(t, &stubAppointments{}, doctor), http.MethodGet, "/appointments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdateAppointment(t *testing.T) {
	svc := &stubAppointments{appointment: &models.Appointment{ID: 3}}
	w := do(newAppointmentRouter(t, svc, doctor), http.MethodPatch, "/appointments/3", `{"status":"RESCHEDULED"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastPayload.Status)
	assert.Equal(t, models.StatusRescheduled, *svc.lastPayload.Status)
}

func TestDeleteAppointment(t *testing.T) {
	svc := &stubAppointments{}
	w := do(newAppointmentRouter(t, svc, doctor), http.MethodDelete, "/appointments/5", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint(5), svc.lastID)

	svc.err = &services.AccessDeniedError{Reason: "provider is not assigned to this appointment"}
	w = do(newAppointmentRouter(t, svc, doctor), http.MethodDelete, "/appointments/5", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssignProvider_StatusReflectsOutcome(t *testing.T) {
	svc := &stubAppointments{appointment: &models.Appointment{ID: 2}}
	r := newAppointmentRouter(t, svc, doctor)

	w := do(r, http.MethodPost, "/appointments/2/providers", `{"provider_id":"DR2"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "DR2", svc.lastProvider)

	svc.alreadyAssigned = true
	w = do(r, http.MethodPost, "/appointments/2/providers", `{"provider_id":"DR2"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Provider already assigned", body["message"])
}

func TestRecordVitals(t *testing.T) {
	svc := &stubAppointments{vitalsCreated: true}
	r := newAppointmentRouter(t, svc, doctor)
	body := `{"blood_pressure":"120/80","heart_rate":70,"temperature":36.7}`

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/appointments/8/vitals", body).Code)

	svc.vitalsCreated = false
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/appointments/8/vitals", body).Code)
}

func TestAppointmentEvents_EmptyIsArray(t *testing.T) {
	w := do(newAppointmentRouter(t, &stubAppointments{}, doctor), http.MethodGet, "/appointments/8/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandlers_NoCallerReachesServiceAsNil(t *testing.T) {
	svc := &stubAppointments{err: services.ErrAuthenticationRequired}
	w := do(newAppointmentRouter(t, svc, nil), http.MethodGet, "/appointments", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, svc.lastCaller)
}

func newAnalyticsRouter(t *testing.T, svc AnalyticsService) *gin.Engine {
	h := NewAnalyticsHandler(svc, zaptest.NewLogger(t))
	r := gin.New()
	r.Use(withCaller(doctor))
	r.GET("/analytics/wait-time", h.GetAverageWaitTime)
	r.GET("/analytics/no-show-rate", h.GetNoShowRate)
	return r
}

func TestAverageWaitTime_SingleProvider(t *testing.T) {
	avg := 13.5
	svc := &stubAnalytics{avg: &avg}
	w := do(newAnalyticsRouter(t, svc), http.MethodGet, "/analytics/wait-time?provider_id=DR1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DR1", svc.providerID)
	assert.JSONEq(t, `{"provider_id":"DR1","average_wait_time_minutes":13.5}`, w.Body.String())
}

func TestAverageWaitTime_NoDataIsNull(t *testing.T) {
	w := do(newAnalyticsRouter(t, &stubAnalytics{}), http.MethodGet, "/analytics/wait-time?provider_id=DR9", "")
	assert.JSONEq(t, `{"provider_id":"DR9","average_wait_time_minutes":null}`, w.Body.String())
}

func TestAverageWaitTime_AllProviders(t *testing.T) {
	w := do(newAnalyticsRouter(t, &stubAnalytics{}), http.MethodGet, "/analytics/wait-time", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestNoShowRate_PassesFilters(t *testing.T) {
	svc := &stubAnalytics{report: &services.NoShowReport{ProviderID: "DR1", PatientID: "P001", Total: 3, NoShows: 1, Rate: 33.33}}
	w := do(newAnalyticsRouter(t, svc), http.MethodGet, "/analytics/no-show-rate?provider_id=DR1&patient_id=P001", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DR1", svc.providerID)
	assert.Equal(t, "P001", svc.patientID)
	assert.Contains(t, w.Body.String(), `"rate":33.33`)
}

func TestNoShowRate_AccessDenied(t *testing.T) {
	svc := &stubAnalytics{err: &services.AccessDeniedError{Reason: "analytics are restricted to providers"}}
	w := do(newAnalyticsRouter(t, svc), http.MethodGet, "/analytics/no-show-rate", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
