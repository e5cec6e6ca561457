package services

import (
	"context"
	"math"
	"sort"
	"time"

	"CommClinic/models"

	"go.uber.org/zap"
)

// NoShowWindow is the trailing window used for the clinic-wide no-show rate.
const NoShowWindow = 30 * 24 * time.Hour

type ProviderWaitTime struct {
	ProviderID     string   `json:"provider_id"`
	AverageMinutes *float64 `json:"average_wait_time_minutes"`
}

type PatientNoShowRate struct {
	PatientID string  `json:"patient_id"`
	Total     int     `json:"total"`
	NoShows   int     `json:"no_shows"`
	Rate      float64 `json:"rate"`
}

type NoShowReport struct {
	ProviderID string              `json:"provider_id,omitempty"`
	PatientID  string              `json:"patient_id,omitempty"`
	Since      *time.Time          `json:"since,omitempty"`
	Total      int                 `json:"total"`
	NoShows    int                 `json:"no_shows"`
	Rate       float64             `json:"rate"`
	Patients   []PatientNoShowRate `json:"patients,omitempty"`
}

// AnalyticsService computes read-only views over stored appointments and
// their audit events.
type AnalyticsService struct {
	appointments AppointmentStore
	events       EventStore
	now          func() time.Time
	log          *zap.Logger
}

func NewAnalyticsService(appointments AppointmentStore, events EventStore, now func() time.Time, log *zap.Logger) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsService{appointments: appointments, events: events, now: now, log: log}
}

// AverageWaitTime returns the mean wait in minutes across the provider's
// appointments, or nil when no appointment has a computable wait.
func (s *AnalyticsService) AverageWaitTime(ctx context.Context, caller models.Caller, providerID string) (*float64, error) {
	if err := authorizeAnalytics(caller); err != nil {
		return nil, err
	}
	return s.averageWaitTime(ctx, providerID)
}

// AverageWaitTimes returns one entry per provider with at least one
// assignment, ordered by provider id.
func (s *AnalyticsService) AverageWaitTimes(ctx context.Context, caller models.Caller) ([]ProviderWaitTime, error) {
	if err := authorizeAnalytics(caller); err != nil {
		return nil, err
	}
	providerIDs, err := s.appointments.ListAssignedProviderIDs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(providerIDs)

	out := make([]ProviderWaitTime, 0, len(providerIDs))
	for _, id := range providerIDs {
		avg, err := s.averageWaitTime(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ProviderWaitTime{ProviderID: id, AverageMinutes: avg})
	}
	return out, nil
}

func (s *AnalyticsService) averageWaitTime(ctx context.Context, providerID string) (*float64, error) {
	appointments, err := s.appointments.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if len(appointments) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.ID)
	}
	events, err := s.events.ListStatusChanges(ctx, ids)
	if err != nil {
		return nil, err
	}

	byAppointment := make(map[uint][]models.Event, len(ids))
	for _, e := range events {
		byAppointment[e.AppointmentID] = append(byAppointment[e.AppointmentID], e)
	}

	var waits []float64
	for _, id := range ids {
		if wait, ok := WaitTimeMinutes(byAppointment[id]); ok {
			waits = append(waits, wait)
		}
	}
	return MeanWaitTime(waits), nil
}

// NoShowRate reports the no-show rate for a provider and patient pair, a
// provider with a per-patient breakdown, a single patient, or the whole
// clinic over the trailing NoShowWindow when neither id is given.
func (s *AnalyticsService) NoShowRate(ctx context.Context, caller models.Caller, providerID, patientID string) (*NoShowReport, error) {
	if err := authorizeAnalytics(caller); err != nil {
		return nil, err
	}

	report := &NoShowReport{ProviderID: providerID, PatientID: patientID}
	var appointments []models.Appointment
	var err error

	switch {
	case providerID != "":
		appointments, err = s.appointments.ListByProvider(ctx, providerID)
		if err != nil {
			return nil, err
		}
		if patientID != "" {
			appointments = filterByPatient(appointments, patientID)
		} else {
			report.Patients = breakdownByPatient(appointments)
		}
	case patientID != "":
		appointments, err = s.appointments.ListByPatient(ctx, patientID)
		if err != nil {
			return nil, err
		}
	default:
		since := s.now().Add(-NoShowWindow)
		report.Since = &since
		appointments, err = s.appointments.ListActiveSince(ctx, since)
		if err != nil {
			return nil, err
		}
	}

	report.Total = len(appointments)
	report.NoShows = countNoShows(appointments)
	report.Rate = CalculateNoShowRate(appointments)
	return report, nil
}

// WaitTimeMinutes measures the gap between the latest CHECKED_IN and the
// latest ATTENDING status change. It reports false when either is missing or
// ATTENDING precedes CHECKED_IN.
func WaitTimeMinutes(events []models.Event) (float64, bool) {
	var checkedIn, attending time.Time
	for _, e := range events {
		if e.Type != models.EventAppointmentStatusChanged {
			continue
		}
		switch e.Status {
		case models.StatusCheckedIn:
			if e.CreatedAt.After(checkedIn) {
				checkedIn = e.CreatedAt
			}
		case models.StatusAttending:
			if e.CreatedAt.After(attending) {
				attending = e.CreatedAt
			}
		}
	}
	if checkedIn.IsZero() || attending.IsZero() {
		return 0, false
	}
	wait := attending.Sub(checkedIn)
	if wait < 0 {
		return 0, false
	}
	return wait.Minutes(), true
}

// MeanWaitTime averages waits, rounded to two decimals. No waits means no
// average.
func MeanWaitTime(waits []float64) *float64 {
	if len(waits) == 0 {
		return nil
	}
	var sum float64
	for _, w := range waits {
		sum += w
	}
	mean := roundTo2(sum / float64(len(waits)))
	return &mean
}

// CalculateNoShowRate is 100 * NO_SHOW / total, rounded to two decimals; an
// empty set has rate 0.
func CalculateNoShowRate(appointments []models.Appointment) float64 {
	if len(appointments) == 0 {
		return 0
	}
	return roundTo2(100 * float64(countNoShows(appointments)) / float64(len(appointments)))
}

func countNoShows(appointments []models.Appointment) int {
	n := 0
	for _, a := range appointments {
		if a.Status == models.StatusNoShow {
			n++
		}
	}
	return n
}

func filterByPatient(appointments []models.Appointment, patientID string) []models.Appointment {
	var out []models.Appointment
	for _, a := range appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

func breakdownByPatient(appointments []models.Appointment) []PatientNoShowRate {
	grouped := make(map[string][]models.Appointment)
	for _, a := range appointments {
		grouped[a.PatientID] = append(grouped[a.PatientID], a)
	}
	out := make([]PatientNoShowRate, 0, len(grouped))
	for patientID, list := range grouped {
		out = append(out, PatientNoShowRate{
			PatientID: patientID,
			Total:     len(list),
			NoShows:   countNoShows(list),
			Rate:      CalculateNoShowRate(list),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PatientID < out[j].PatientID })
	return out
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func authorizeAnalytics(caller models.Caller) error {
	switch caller.(type) {
	case nil:
		return ErrAuthenticationRequired
	case models.ProviderCaller:
		return nil
	default:
		return &AccessDeniedError{Reason: "analytics are available to providers only"}
	}
}
