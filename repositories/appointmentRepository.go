package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CommClinic/cache"
	"CommClinic/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	AppointmentCacheExpiry = 7 * 24 * time.Hour
	queryTimeout           = 5 * time.Second
)

// AppointmentCachePattern matches every cached appointment.
const AppointmentCachePattern = "appointment_cache:*"

func appointmentCacheKey(id uint) string {
	return fmt.Sprintf("appointment_cache:%d", id)
}

type AppointmentRepository struct {
	db     *gorm.DB
	cache  *cache.Cache
	expiry time.Duration
	log    *zap.Logger
}

// NewAppointmentRepository builds the repository. cache may be nil, which
// disables read-through caching of single appointments.
func NewAppointmentRepository(db *gorm.DB, cache *cache.Cache, expiry time.Duration, log *zap.Logger) *AppointmentRepository {
	if expiry <= 0 {
		expiry = AppointmentCacheExpiry
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AppointmentRepository{db: db, cache: cache, expiry: expiry, log: log}
}

// Create inserts the appointment and any attached vitals, notes and
// provider rows in one transaction.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(appointment).Error; err != nil {
			return err
		}
		return saveChildren(tx, appointment)
	})
	if err != nil {
		return translateWriteError(err)
	}
	r.invalidate(ctx, appointment.ID)
	return nil
}

func saveChildren(tx *gorm.DB, appointment *models.Appointment) error {
	if appointment.Vitals != nil {
		appointment.Vitals.AppointmentID = appointment.ID
		if err := tx.Save(appointment.Vitals).Error; err != nil {
			return fmt.Errorf("failed to save vitals: %w", err)
		}
	}
	for i := range appointment.SoapNotes {
		appointment.SoapNotes[i].AppointmentID = appointment.ID
		if err := tx.Save(&appointment.SoapNotes[i]).Error; err != nil {
			return fmt.Errorf("failed to save soap note: %w", err)
		}
	}
	for i := range appointment.AppointmentProviders {
		ap := &appointment.AppointmentProviders[i]
		if ap.ID != 0 {
			continue
		}
		ap.AppointmentID = appointment.ID
		if err := tx.Create(ap).Error; err != nil {
			return fmt.Errorf("failed to assign provider: %w", err)
		}
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cacheKey := appointmentCacheKey(id)
	if r.cache != nil {
		var cached models.Appointment
		hit, err := r.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			r.log.Warn("failed to read appointment from cache", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	var appointment models.Appointment
	err := r.withChildren(r.db.WithContext(ctx)).First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey, appointment, r.expiry); err != nil {
			r.log.Warn("failed to cache appointment", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return &appointment, nil
}

func (r *AppointmentRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Vitals").
		Preload("SoapNotes", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("AppointmentProviders")
}

func (r *AppointmentRepository) find(ctx context.Context, query func(*gorm.DB) *gorm.DB) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var appointments []models.Appointment
	db := query(r.db.WithContext(ctx).Preload("AppointmentProviders"))
	if err := db.Order("appointment_date DESC, appointment_time DESC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("patient_id = ?", patientID)
	})
}

func (r *AppointmentRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Appointment, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		assigned := r.db.Model(&models.AppointmentProvider{}).Select("appointment_id").Where("provider_id = ?", providerID)
		return db.Where("id IN (?)", assigned)
	})
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

// ListActiveSince returns appointments created or updated at or after since.
func (r *AppointmentRepository) ListActiveSince(ctx context.Context, since time.Time) ([]models.Appointment, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at >= ? OR updated_at >= ?", since, since)
	})
}

func (r *AppointmentRepository) ListAssignedProviderIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.AppointmentProvider{}).
		Distinct("provider_id").
		Order("provider_id").
		Pluck("provider_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned providers: %w", err)
	}
	return ids, nil
}

func (r *AppointmentRepository) FindSameDay(ctx context.Context, patientID, appointmentDate string, excludeID uint) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND appointment_date = ? AND id <> ?", patientID, appointmentDate, excludeID).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check schedule conflicts: %w", err)
	}
	return &appointment, nil
}

// Update saves the appointment row and its attached records in one
// transaction. Provider rows are only ever added here.
func (r *AppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(appointment).Error; err != nil {
			return err
		}
		return saveChildren(tx, appointment)
	})
	if err != nil {
		return translateWriteError(err)
	}
	r.invalidate(ctx, appointment.ID)
	return nil
}

// Delete removes the appointment after its provider rows, vitals and notes.
// appointment_events rows are kept.
func (r *AppointmentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", id).Delete(&models.AppointmentProvider{}).Error; err != nil {
			return fmt.Errorf("failed to delete appointment providers: %w", err)
		}
		if err := tx.Where("appointment_id = ?", id).Delete(&models.Vitals{}).Error; err != nil {
			return fmt.Errorf("failed to delete vitals: %w", err)
		}
		if err := tx.Where("appointment_id = ?", id).Delete(&models.SoapNote{}).Error; err != nil {
			return fmt.Errorf("failed to delete soap notes: %w", err)
		}
		if err := tx.Delete(&models.Appointment{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// AssignProvider sets status to SCHEDULED and inserts the join row
// atomically, unless the appointment already has a provider. The appointment
// row is locked first so concurrent assignments serialise on the count.
func (r *AppointmentRepository) AssignProvider(ctx context.Context, appointmentID uint, providerID string) (bool, error) {
	alreadyAssigned := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&locked, appointmentID).Error; err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}
		var count int64
		if err := tx.Model(&models.AppointmentProvider{}).Where("appointment_id = ?", appointmentID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			alreadyAssigned = true
			return nil
		}
		if err := tx.Model(&models.Appointment{}).Where("id = ?", appointmentID).Update("status", models.StatusScheduled).Error; err != nil {
			return fmt.Errorf("failed to reset appointment status: %w", err)
		}
		row := &models.AppointmentProvider{AppointmentID: appointmentID, ProviderID: providerID, IsPrimary: true}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to assign provider: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if !alreadyAssigned {
		r.invalidate(ctx, appointmentID)
	}
	return alreadyAssigned, nil
}

func (r *AppointmentRepository) SaveVitals(ctx context.Context, vitals *models.Vitals) error {
	if err := r.db.WithContext(ctx).Save(vitals).Error; err != nil {
		return fmt.Errorf("failed to save vitals: %w", err)
	}
	r.invalidate(ctx, vitals.AppointmentID)
	return nil
}

func (r *AppointmentRepository) invalidate(ctx context.Context, id uint) {
	invalidateAppointment(ctx, r.cache, r.log, id)
}

func invalidateAppointment(ctx context.Context, c *cache.Cache, log *zap.Logger, id uint) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, appointmentCacheKey(id)); err != nil {
		log.Warn("failed to invalidate appointment cache", zap.Uint("appointment_id", id), zap.Error(err))
	}
}
