// Package bootstrap builds the shared runtime dependencies the binaries wire
// together: redis and the settings store.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/LPredmore/valorwell-first-ehr-sub007/internal/config"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/settings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// SettingsStore is the settings surface the services and handlers consume.
type SettingsStore interface {
	Get(ctx context.Context, clinicianID uuid.UUID) (*settings.AvailabilitySettings, error)
	Set(ctx context.Context, s *settings.AvailabilitySettings) error
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSettingsStore returns the redis-backed settings store, or a
// defaults-only provider when redis is unavailable. Clinicians always
// resolve; without redis they just can't customize. The fallback record
// carries the operator's DEFAULT_* env knobs from cfg.
func BuildSettingsStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) SettingsStore {
	defaults := settingsDefaults(cfg)
	if redisClient == nil {
		if logger != nil {
			logger.Warn("settings store disabled, serving defaults only")
		}
		return defaultsOnlySettings{defaults: defaults}
	}
	return settings.NewStore(redisClient).WithDefaults(defaults)
}

func settingsDefaults(cfg *appconfig.Config) settings.Defaults {
	if cfg == nil {
		return settings.Defaults{}
	}
	return settings.Defaults{
		TimeGranularityMin: cfg.DefaultGranularityMin,
		MinNoticeHours:     cfg.DefaultMinNoticeHours,
		MaxAdvanceDays:     cfg.DefaultMaxAdvanceDays,
		TimeZone:           cfg.DefaultTimeZone,
	}
}

type defaultsOnlySettings struct {
	defaults settings.Defaults
}

func (d defaultsOnlySettings) Get(_ context.Context, clinicianID uuid.UUID) (*settings.AvailabilitySettings, error) {
	return d.defaults.For(clinicianID), nil
}

func (defaultsOnlySettings) Set(context.Context, *settings.AvailabilitySettings) error {
	return errors.New("settings: storage unavailable")
}
