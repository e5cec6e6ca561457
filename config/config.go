package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"ENV"`
	DBURL               string        `mapstructure:"DB_URL"`
	RedisAddress        string        `mapstructure:"REDIS_URL"`
	SymmetricKey        string        `mapstructure:"SYMMETRIC_KEY"`
	CORSOrigins         []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS        float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST"`
	AppointmentCacheTTL time.Duration `mapstructure:"APPOINTMENT_CACHE_TTL"`
	ScheduleLockTTL     time.Duration `mapstructure:"SCHEDULE_LOCK_TTL"`
	ClinicTimezone      string        `mapstructure:"CLINIC_TIMEZONE"`
}

var keys = []string{
	"PORT", "ENV", "DB_URL", "REDIS_URL", "SYMMETRIC_KEY", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "APPOINTMENT_CACHE_TTL", "SCHEDULE_LOCK_TTL", "CLINIC_TIMEZONE",
}

// Load reads configuration from the environment, applying defaults.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8930")
	v.SetDefault("ENV", "production")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 15)
	v.SetDefault("RATE_LIMIT_BURST", 30)
	v.SetDefault("APPOINTMENT_CACHE_TTL", "168h")
	v.SetDefault("SCHEDULE_LOCK_TTL", "10s")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.DBURL == "" {
		return errors.New("missing DB_URL environment variable")
	}
	if c.RedisAddress == "" {
		return errors.New("missing REDIS_URL environment variable")
	}
	if len(c.SymmetricKey) != 32 {
		return fmt.Errorf("SYMMETRIC_KEY must be 32 bytes long, got %d", len(c.SymmetricKey))
	}
	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return fmt.Errorf("invalid CLINIC_TIMEZONE: %w", err)
	}
	return nil
}

// IsDevelopment reports whether verbose logging should be enabled.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the clinic's timezone. Load has already validated it.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
