// Package settings stores per-clinician availability settings. A clinician
// who never configured anything still resolves: reads fall back to documented
// defaults instead of failing.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
)

// AvailabilitySettings is the persisted per-clinician record. One record per
// clinician, upserted.
type AvailabilitySettings struct {
	ClinicianID        uuid.UUID `json:"clinician_id"`
	TimeGranularityMin int       `json:"time_granularity_min"` // 15, 30 or 60
	MinNoticeHours     int       `json:"min_notice_hours"`
	MaxAdvanceDays     int       `json:"max_advance_days"`
	TimeZone           string    `json:"time_zone"`
}

// DefaultSettings returns the fallback used when no record exists.
func DefaultSettings(clinicianID uuid.UUID) *AvailabilitySettings {
	def := schedule.DefaultSettings()
	return &AvailabilitySettings{
		ClinicianID:        clinicianID,
		TimeGranularityMin: def.GranularityMinutes,
		MinNoticeHours:     int(def.MinNotice / time.Hour),
		MaxAdvanceDays:     def.MaxAdvanceDays,
		TimeZone:           def.TimeZone,
	}
}

// Defaults carries operator-configured fallback values served when a
// clinician has no stored record. Invalid or zero fields fall back per-field
// to the engine's built-in defaults.
type Defaults struct {
	TimeGranularityMin int
	MinNoticeHours     int
	MaxAdvanceDays     int
	TimeZone           string
}

// For materializes the defaults as a clinician's settings record.
func (d Defaults) For(clinicianID uuid.UUID) *AvailabilitySettings {
	out := DefaultSettings(clinicianID)
	if d == (Defaults{}) {
		return out
	}
	switch d.TimeGranularityMin {
	case 15, 30, 60:
		out.TimeGranularityMin = d.TimeGranularityMin
	}
	if d.MinNoticeHours >= 0 {
		out.MinNoticeHours = d.MinNoticeHours
	}
	if d.MaxAdvanceDays > 0 {
		out.MaxAdvanceDays = d.MaxAdvanceDays
	}
	if d.TimeZone != "" {
		if _, err := time.LoadLocation(d.TimeZone); err == nil {
			out.TimeZone = d.TimeZone
		}
	}
	return out
}

// Engine converts the record into the engine's settings shape.
func (s *AvailabilitySettings) Engine() schedule.Settings {
	return schedule.Settings{
		GranularityMinutes: s.TimeGranularityMin,
		MinNotice:          time.Duration(s.MinNoticeHours) * time.Hour,
		MaxAdvanceDays:     s.MaxAdvanceDays,
		TimeZone:           s.TimeZone,
	}
}

// Validate rejects records that would corrupt slot generation.
func (s *AvailabilitySettings) Validate() error {
	switch s.TimeGranularityMin {
	case 15, 30, 60:
	default:
		return fmt.Errorf("settings: granularity must be 15, 30 or 60 minutes, got %d", s.TimeGranularityMin)
	}
	if s.MinNoticeHours < 0 {
		return fmt.Errorf("settings: negative minimum notice")
	}
	if s.MaxAdvanceDays <= 0 {
		return fmt.Errorf("settings: max advance days must be positive")
	}
	if _, err := time.LoadLocation(s.TimeZone); err != nil || s.TimeZone == "" {
		return fmt.Errorf("%w: %q", schedule.ErrInvalidTimeZone, s.TimeZone)
	}
	return nil
}

// Store persists availability settings in redis.
type Store struct {
	redis    *redis.Client
	defaults Defaults
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// WithDefaults sets the fallback record served when a clinician has no
// stored settings.
func (s *Store) WithDefaults(d Defaults) *Store {
	s.defaults = d
	return s
}

func (s *Store) key(clinicianID uuid.UUID) string {
	return fmt.Sprintf("availability:settings:%s", clinicianID)
}

// Get retrieves a clinician's settings, returning defaults if none are set.
func (s *Store) Get(ctx context.Context, clinicianID uuid.UUID) (*AvailabilitySettings, error) {
	data, err := s.redis.Get(ctx, s.key(clinicianID)).Bytes()
	if err == redis.Nil {
		return s.defaults.For(clinicianID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: get: %w", err)
	}
	var out AvailabilitySettings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("settings: unmarshal: %w", err)
	}
	return &out, nil
}

// Set upserts a clinician's settings.
func (s *Store) Set(ctx context.Context, settings *AvailabilitySettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.ClinicianID), data, 0).Err(); err != nil {
		return fmt.Errorf("settings: set: %w", err)
	}
	return nil
}
