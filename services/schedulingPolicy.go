package services

import (
	"time"
)

const (
	ReasonSameDay     = "appointment already exists for this day."
	ReasonClinicHours = "appointment time must be between 8:00 AM and 4:45 PM."
)

// Clinic operating window in minutes since midnight, both ends inclusive.
const (
	ClinicOpensAt  = 8 * 60
	ClinicClosesAt = 16*60 + 45
)

// ScheduleDecision is the outcome of CanScheduleAppointment.
type ScheduleDecision struct {
	Allowed bool
	Reason  string
}

// CanScheduleAppointment decides whether candidate may be booked given the
// patient's other appointments. The same-day rule is checked before the
// clinic-hours rule. Days are compared in candidate's location.
func CanScheduleAppointment(candidate time.Time, existing []time.Time) ScheduleDecision {
	for _, other := range existing {
		if sameDay(candidate, other.In(candidate.Location())) {
			return ScheduleDecision{Reason: ReasonSameDay}
		}
	}

	minutes := candidate.Hour()*60 + candidate.Minute()
	if minutes < ClinicOpensAt || minutes > ClinicClosesAt {
		return ScheduleDecision{Reason: ReasonClinicHours}
	}

	return ScheduleDecision{Allowed: true}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
