package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"CommClinic/models"
	"CommClinic/repositories"
)

// -- In-memory stores --

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAppointmentStore struct {
	mu        sync.Mutex
	clock     *fakeClock
	rows      map[uint]*models.Appointment
	nextID    uint
	nextChild uint
	createErr error
	updateErr error
}

func newFakeAppointmentStore(clock *fakeClock) *fakeAppointmentStore {
	return &fakeAppointmentStore{clock: clock, rows: make(map[uint]*models.Appointment)}
}

func cloneAppointment(a *models.Appointment) *models.Appointment {
	c := *a
	c.Purposes = append(c.Purposes[:0:0], a.Purposes...)
	if a.Vitals != nil {
		v := *a.Vitals
		c.Vitals = &v
	}
	c.SoapNotes = nil
	for _, n := range a.SoapNotes {
		n.Subjective = n.Subjective.Clone()
		n.Objective = n.Objective.Clone()
		n.Assessment = n.Assessment.Clone()
		n.Plan = n.Plan.Clone()
		c.SoapNotes = append(c.SoapNotes, n)
	}
	c.AppointmentProviders = append([]models.AppointmentProvider(nil), a.AppointmentProviders...)
	return &c
}

func (m *fakeAppointmentStore) childID() uint {
	m.nextChild++
	return m.nextChild
}

func (m *fakeAppointmentStore) occupied(patientID, date string, excludeID uint) bool {
	for _, a := range m.rows {
		if a.ID != excludeID && a.PatientID == patientID && a.Schedule.AppointmentDate == date {
			return true
		}
	}
	return false
}

// attachChildren fills ids and timestamps the database would assign.
func (m *fakeAppointmentStore) attachChildren(a *models.Appointment) {
	now := m.clock.Now()
	if a.Vitals != nil {
		a.Vitals.AppointmentID = a.ID
		if a.Vitals.ID == 0 {
			a.Vitals.ID = m.childID()
			a.Vitals.CreatedAt = now
		}
		a.Vitals.UpdatedAt = now
	}
	for i := range a.SoapNotes {
		a.SoapNotes[i].AppointmentID = a.ID
		if a.SoapNotes[i].ID == 0 {
			a.SoapNotes[i].ID = m.childID()
			a.SoapNotes[i].CreatedAt = now
		}
		a.SoapNotes[i].UpdatedAt = now
	}
	for i := range a.AppointmentProviders {
		a.AppointmentProviders[i].AppointmentID = a.ID
		if a.AppointmentProviders[i].ID == 0 {
			a.AppointmentProviders[i].ID = m.childID()
			a.AppointmentProviders[i].CreatedAt = now
		}
	}
}

func (m *fakeAppointmentStore) Create(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.occupied(a.PatientID, a.Schedule.AppointmentDate, 0) {
		return repositories.ErrDuplicateSchedule
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = m.clock.Now()
	a.UpdatedAt = a.CreatedAt
	m.attachChildren(a)
	m.rows[a.ID] = cloneAppointment(a)
	return nil
}

func (m *fakeAppointmentStore) GetByID(_ context.Context, id uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return cloneAppointment(a), nil
}

func (m *fakeAppointmentStore) list(keep func(*models.Appointment) bool) []models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for id := uint(1); id <= m.nextID; id++ {
		if a, ok := m.rows[id]; ok && keep(a) {
			out = append(out, *cloneAppointment(a))
		}
	}
	return out
}

func (m *fakeAppointmentStore) ListByPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *fakeAppointmentStore) ListByProvider(_ context.Context, providerID string) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.HasProvider(providerID) }), nil
}

func (m *fakeAppointmentStore) ListAll(_ context.Context) ([]models.Appointment, error) {
	return m.list(func(*models.Appointment) bool { return true }), nil
}

func (m *fakeAppointmentStore) ListActiveSince(_ context.Context, since time.Time) ([]models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool {
		return !a.CreatedAt.Before(since) || !a.UpdatedAt.Before(since)
	}), nil
}

func (m *fakeAppointmentStore) ListAssignedProviderIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, a := range m.rows {
		for _, ap := range a.AppointmentProviders {
			if !seen[ap.ProviderID] {
				seen[ap.ProviderID] = true
				out = append(out, ap.ProviderID)
			}
		}
	}
	return out, nil
}

func (m *fakeAppointmentStore) FindSameDay(_ context.Context, patientID, date string, excludeID uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID != excludeID && a.PatientID == patientID && a.Schedule.AppointmentDate == date {
			return cloneAppointment(a), nil
		}
	}
	return nil, nil
}

func (m *fakeAppointmentStore) Update(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[a.ID]; !ok {
		return errors.New("appointment not found")
	}
	if m.occupied(a.PatientID, a.Schedule.AppointmentDate, a.ID) {
		return repositories.ErrDuplicateSchedule
	}
	a.UpdatedAt = m.clock.Now()
	m.attachChildren(a)
	m.rows[a.ID] = cloneAppointment(a)
	return nil
}

func (m *fakeAppointmentStore) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *fakeAppointmentStore) AssignProvider(_ context.Context, appointmentID uint, providerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[appointmentID]
	if !ok {
		return false, errors.New("appointment not found")
	}
	if len(a.AppointmentProviders) > 0 {
		return true, nil
	}
	a.Status = models.StatusScheduled
	a.AppointmentProviders = append(a.AppointmentProviders, models.AppointmentProvider{
		ProviderID: providerID,
		IsPrimary:  true,
	})
	m.attachChildren(a)
	return false, nil
}

func (m *fakeAppointmentStore) SaveVitals(_ context.Context, v *models.Vitals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[v.AppointmentID]
	if !ok {
		return errors.New("appointment not found")
	}
	copied := *v
	a.Vitals = &copied
	m.attachChildren(a)
	v.ID = a.Vitals.ID
	return nil
}

// fakeSoapNoteStore keeps notes inside the appointment rows, like the
// soap_notes table keyed by appointment_id.
type fakeSoapNoteStore struct {
	appointments *fakeAppointmentStore
}

func (s *fakeSoapNoteStore) Create(_ context.Context, note *models.SoapNote) error {
	m := s.appointments
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[note.AppointmentID]
	if !ok {
		return errors.New("appointment not found")
	}
	note.ID = m.childID()
	note.CreatedAt = m.clock.Now()
	note.UpdatedAt = note.CreatedAt
	a.SoapNotes = append(a.SoapNotes, *note)
	return nil
}

func (s *fakeSoapNoteStore) GetByID(_ context.Context, id uint) (*models.SoapNote, error) {
	m := s.appointments
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		for _, n := range a.SoapNotes {
			if n.ID == id {
				found := n
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeSoapNoteStore) Update(_ context.Context, note *models.SoapNote) error {
	m := s.appointments
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[note.AppointmentID]
	if !ok {
		return errors.New("appointment not found")
	}
	for i := range a.SoapNotes {
		if a.SoapNotes[i].ID == note.ID {
			note.UpdatedAt = m.clock.Now()
			a.SoapNotes[i] = *note
			return nil
		}
	}
	return errors.New("soap note not found")
}

func (s *fakeSoapNoteStore) Delete(_ context.Context, note *models.SoapNote) error {
	m := s.appointments
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[note.AppointmentID]
	if !ok {
		return nil
	}
	kept := a.SoapNotes[:0]
	for _, n := range a.SoapNotes {
		if n.ID != note.ID {
			kept = append(kept, n)
		}
	}
	a.SoapNotes = kept
	return nil
}

type fakeEventStore struct {
	mu        sync.Mutex
	clock     *fakeClock
	events    []models.Event
	appendErr error
}

func (m *fakeEventStore) Append(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	e.ID = uint(len(m.events) + 1)
	e.CreatedAt = m.clock.Now()
	e.UpdatedAt = e.CreatedAt
	m.events = append(m.events, *e)
	return nil
}

func (m *fakeEventStore) ListByAppointment(_ context.Context, appointmentID uint) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.events {
		if e.AppointmentID == appointmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *fakeEventStore) ListStatusChanges(_ context.Context, appointmentIDs []uint) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uint]bool, len(appointmentIDs))
	for _, id := range appointmentIDs {
		wanted[id] = true
	}
	var out []models.Event
	for _, e := range m.events {
		if wanted[e.AppointmentID] && e.Type == models.EventAppointmentStatusChanged {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *fakeEventStore) types(appointmentID uint) []models.EventType {
	events, _ := m.ListByAppointment(context.Background(), appointmentID)
	out := make([]models.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

type fakePatientStore struct {
	patients map[string]*models.Patient
}

func (m *fakePatientStore) GetByID(_ context.Context, id string) (*models.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

type fakeProviderStore struct {
	providers map[string]*models.Provider
}

func (m *fakeProviderStore) GetByID(_ context.Context, id string) (*models.Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

type fakeLocker struct {
	mu         sync.Mutex
	held       map[string]string
	acquireErr error
	acquired   int
	released   int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	l.acquired++
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
		l.released++
	}
	return nil
}
