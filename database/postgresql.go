package database

import (
	"context"
	"time"

	"CommClinic/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig sizes the sql.DB pool behind gorm.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig matches the sizing the API has run with in production.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    40,
		MaxIdleConns:    20,
		ConnMaxLifetime: 10 * time.Minute,
	}
}

// InitDB opens the database connection, verifies it and migrates the scheduling tables.
func InitDB(ctx context.Context, dsn string, verbose bool, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	logMode := logger.Silent
	if verbose {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(db, DefaultPoolConfig()); err != nil {
		return nil, err
	}

	if err := testDatabaseConnection(ctx, db); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	if err := models.SeedRoles(db); err != nil {
		return nil, errors.Wrap(err, "failed to seed roles")
	}

	log.Info("database initialized")
	return db, nil
}

func configureConnectionPool(db *gorm.DB, cfg PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}

func testDatabaseConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

// runMigrations creates the scheduling tables. The composite unique index on
// appointments(patient_id, appointment_date) is what finally rejects two
// concurrent bookings for the same patient and day.
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.Patient{},
		&models.Provider{},
		&models.Appointment{},
		&models.AppointmentProvider{},
		&models.Vitals{},
		&models.SoapNote{},
		&models.Event{},
	)
}
