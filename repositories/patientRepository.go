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
)

const (
	PatientCacheExpiry  = 24 * time.Hour
	ProviderCacheExpiry = 24 * time.Hour
)

// PatientRepository reads patients. Registration lives outside this service.
type PatientRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

func NewPatientRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *PatientRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &PatientRepository{db: db, cache: cache, log: log}
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	found, err := cachedFirst(ctx, r.db, r.cache, r.log, "patient_cache:"+id, PatientCacheExpiry, &patient, id)
	if err != nil || !found {
		return nil, err
	}
	return &patient, nil
}

type ProviderRepository struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

func NewProviderRepository(db *gorm.DB, cache *cache.Cache, log *zap.Logger) *ProviderRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProviderRepository{db: db, cache: cache, log: log}
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var provider models.Provider
	found, err := cachedFirst(ctx, r.db, r.cache, r.log, "provider_cache:"+id, ProviderCacheExpiry, &provider, id)
	if err != nil || !found {
		return nil, err
	}
	return &provider, nil
}

// cachedFirst loads the row with primary key id into dest, going through the
// cache when one is configured.
func cachedFirst(ctx context.Context, db *gorm.DB, c *cache.Cache, log *zap.Logger, key string, expiry time.Duration, dest interface{}, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if c != nil {
		hit, err := c.GetJSON(ctx, key, dest)
		if err != nil {
			log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return true, nil
		}
	}

	if err := db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if c != nil {
		if err := c.SetJSON(ctx, key, dest, expiry); err != nil {
			log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return true, nil
}
