package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ScheduleConstraint is the unique index on (patient_id, appointment_date).
const ScheduleConstraint = "idx_appointment_patient_day"

const uniqueViolation = "23505"

// ErrDuplicateSchedule is returned when a write would give a patient two
// appointments on one day.
var ErrDuplicateSchedule = errors.New("patient already has an appointment on this day")

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == ScheduleConstraint {
		return ErrDuplicateSchedule
	}
	return err
}
