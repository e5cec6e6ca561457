package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"CommClinic/cache"
	"CommClinic/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c, err := cache.NewCache(client)
	require.NoError(t, err)
	return c, mr
}

func TestAppointmentRepository_DeleteCascadesInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(appointmentCacheKey(5), `{"id":5}`))

	repo := NewAppointmentRepository(db, c, 0, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "appointment_providers"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "vitals"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "soap_notes"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "appointments"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.False(t, mr.Exists(appointmentCacheKey(5)))
}

func TestAppointmentRepository_DeleteRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "appointment_providers"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "vitals"`)).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete vitals")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_AssignProviderFirstTime(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "appointments" WHERE .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "appointment_providers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "appointments" SET "status"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "appointment_providers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	already, err := repo.AssignProvider(context.Background(), 7, "DR1")
	require.NoError(t, err)
	assert.False(t, already)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_AssignProviderAlreadyAssigned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "appointments" WHERE .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "appointment_providers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	already, err := repo.AssignProvider(context.Background(), 7, "DR2")
	require.NoError(t, err)
	assert.True(t, already)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_AssignProviderIsAtomic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "appointments" WHERE .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "appointment_providers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "appointments" SET "status"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "appointment_providers"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.AssignProvider(context.Background(), 7, "DR1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_AssignProviderMissingAppointment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "appointments" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.AssignProvider(context.Background(), 7, "DR1")
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_FindSameDayNone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db, nil, 0, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "appointments" WHERE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.FindSameDay(context.Background(), "P001", "2024-02-10", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_GetByIDServesCache(t *testing.T) {
	db, mock := newMockDB(t)
	c, _ := newTestCache(t)
	repo := NewAppointmentRepository(db, c, 0, nil)

	cached := models.Appointment{
		ID:        9,
		PatientID: "P001",
		Schedule:  models.Schedule{AppointmentDate: "2024-02-10", AppointmentTime: "09:00"},
		Status:    models.StatusCheckedIn,
	}
	require.NoError(t, c.SetJSON(context.Background(), appointmentCacheKey(9), cached, AppointmentCacheExpiry))

	got, err := repo.GetByID(context.Background(), 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusCheckedIn, got.Status)
	assert.Equal(t, "09:00", got.Schedule.AppointmentTime)
	assert.NoError(t, mock.ExpectationsWereMet(), "cache hit must not touch the database")
}

func TestTranslateWriteError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: ScheduleConstraint}
	assert.ErrorIs(t, translateWriteError(dup), ErrDuplicateSchedule)
	assert.Equal(t, gorm.ErrDuplicatedKey, translateWriteError(gorm.ErrDuplicatedKey))

	other := &pgconn.PgError{Code: "23505", ConstraintName: "idx_vitals_appointment_id"}
	assert.Equal(t, other, translateWriteError(other))

	assert.NoError(t, translateWriteError(nil))
}

func TestEventRepository_ListStatusChangesWithoutIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	events, err := repo.ListStatusChanges(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Append(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "appointment_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	event := &models.Event{Type: models.EventVitalsRecorded, AppointmentID: 3, CreatedByID: "NU1"}
	require.NoError(t, repo.Append(context.Background(), event))
	assert.Equal(t, uint(11), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
