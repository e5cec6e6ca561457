package services

import (
	"testing"
	"time"

	"CommClinic/metrics"
	"CommClinic/models"

	"go.uber.org/zap/zaptest"
)

type harness struct {
	clock        *fakeClock
	appointments *fakeAppointmentStore
	events       *fakeEventStore
	locker       *fakeLocker
	metrics      *metrics.Metrics
	svc          *AppointmentService
	soap         *SoapNoteService
	analytics    *AnalyticsService
}

var (
	patientP001  = models.PatientCaller{ID: "P001"}
	patientP002  = models.PatientCaller{ID: "P002"}
	doctor       = models.ProviderCaller{ID: "DR1", RoleTitle: models.RoleGeneralPractice}
	otherDoctor  = models.ProviderCaller{ID: "DR2", RoleTitle: models.RoleGeneralPractice}
	nurse        = models.ProviderCaller{ID: "NU1", RoleTitle: models.RoleNurse}
	receptionist = models.ProviderCaller{ID: "RC1", RoleTitle: models.RoleReceptionist}
	janitor      = models.ProviderCaller{ID: "JN1", RoleTitle: models.RoleTitle("JANITOR")}
)

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := newFakeClock(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	appointments := newFakeAppointmentStore(clock)
	events := &fakeEventStore{clock: clock}
	locker := newFakeLocker()
	m := metrics.New(nil)
	log := zaptest.NewLogger(t)

	insurer := "INS-1"
	patients := &fakePatientStore{patients: map[string]*models.Patient{
		"P001": {ID: "P001", FirstName: "Ama", LastName: "Owusu"},
		"P002": {ID: "P002", FirstName: "Kofi", LastName: "Mensah", InsuranceProviderID: &insurer},
	}}
	providers := &fakeProviderStore{providers: map[string]*models.Provider{
		"DR1": {ID: "DR1", RoleTitle: models.RoleGeneralPractice},
		"DR2": {ID: "DR2", RoleTitle: models.RoleGeneralPractice},
		"NU1": {ID: "NU1", RoleTitle: models.RoleNurse},
		"RC1": {ID: "RC1", RoleTitle: models.RoleReceptionist},
	}}

	eventLog := NewEventLog(events, log, m)
	return &harness{
		clock:        clock,
		appointments: appointments,
		events:       events,
		locker:       locker,
		metrics:      m,
		svc: NewAppointmentService(appointments, patients, providers, eventLog, locker, AppointmentServiceOptions{
			Location: time.UTC,
			Logger:   log,
			Metrics:  m,
		}),
		soap:      NewSoapNoteService(appointments, &fakeSoapNoteStore{appointments: appointments}, eventLog, log),
		analytics: NewAnalyticsService(appointments, events, clock.Now, log),
	}
}

func booking(patientID, date, clock string) *models.AppointmentPayload {
	return &models.AppointmentPayload{
		PatientID: patientID,
		Schedule:  &models.SchedulePayload{AppointmentDate: date, AppointmentTime: clock},
		Purposes:  []models.Purpose{models.PurposeConsultation},
	}
}

func vitalsPayload() *models.VitalsPayload {
	return &models.VitalsPayload{
		BloodPressure: "120/80",
		HeartRate:     72,
		Temperature:   36.8,
		Height:        170,
		Weight:        68.5,
	}
}

func soapPayload() *models.SoapNotePayload {
	return &models.SoapNotePayload{
		Subjective: models.Subjective{Symptoms: []string{"headache", "fatigue"}},
		Objective:  models.Objective{PhysicalExamReport: "alert, no focal deficit"},
		Assessment: models.Assessment{Diagnosis: "tension headache"},
		Plan:       models.Plan{Prescription: "paracetamol 500mg", TestRequests: []string{"FBC"}},
	}
}

func statusPtr(s models.AppointmentStatus) *models.AppointmentStatus {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
