package repositories

import (
	"context"
	"errors"
	"fmt"

	"CommClinic/cache"
	"CommClinic/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SoapNoteRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

func NewSoapNoteRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *SoapNoteRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SoapNoteRepository{db: db, cache: cache, log: log}
}

func (r *SoapNoteRepository) Create(ctx context.Context, note *models.SoapNote) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create soap note: %w", err)
	}
	invalidateAppointment(ctx, r.cache, r.log, note.AppointmentID)
	return nil
}

func (r *SoapNoteRepository) GetByID(ctx context.Context, id uint) (*models.SoapNote, error) {
	var note models.SoapNote
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get soap note: %w", err)
	}
	return &note, nil
}

func (r *SoapNoteRepository) Update(ctx context.Context, note *models.SoapNote) error {
	if err := r.db.WithContext(ctx).Save(note).Error; err != nil {
		return fmt.Errorf("failed to update soap note: %w", err)
	}
	invalidateAppointment(ctx, r.cache, r.log, note.AppointmentID)
	return nil
}

func (r *SoapNoteRepository) Delete(ctx context.Context, note *models.SoapNote) error {
	if err := r.db.WithContext(ctx).Delete(&models.SoapNote{}, note.ID).Error; err != nil {
		return fmt.Errorf("failed to delete soap note: %w", err)
	}
	invalidateAppointment(ctx, r.cache, r.log, note.AppointmentID)
	return nil
}
