package schedule

import (
	"time"

	"github.com/google/uuid"
)

// WeeklyAvailabilityBlock is one recurring weekly window of open time, keyed
// by day of week. Blocks are soft-deactivated rather than deleted so that
// historical per-date exceptions keep a valid parent.
type WeeklyAvailabilityBlock struct {
	ID          uuid.UUID
	ClinicianID uuid.UUID
	DayOfWeek   time.Weekday
	StartTime   ClockTime
	EndTime     ClockTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AvailabilityException overrides a single occurrence of a weekly block
// (OriginalBlockID set) or adds a free-standing one-time window
// (OriginalBlockID nil). IsDeleted with nil times cancels the occurrence.
type AvailabilityException struct {
	ID              uuid.UUID
	ClinicianID     uuid.UUID
	SpecificDate    Date
	OriginalBlockID *uuid.UUID
	StartTime       *ClockTime
	EndTime         *ClockTime
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Standalone reports whether the exception is a one-time addition rather than
// an override of a recurring occurrence.
func (e AvailabilityException) Standalone() bool {
	return e.OriginalBlockID == nil
}

// TimeBlock is a blackout. It is always subtracted from availability and
// never merged into it.
type TimeBlock struct {
	ID          uuid.UUID
	ClinicianID uuid.UUID
	Date        Date
	StartTime   ClockTime
	EndTime     ClockTime
	Reason      string
}

// AppointmentStatus enumerates booking lifecycle states.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Active reports whether the appointment still consumes clinician time.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Appointment is a booked visit. It is a purely subtractive input to slot
// generation and never merges into the availability machinery.
type Appointment struct {
	ID          uuid.UUID
	ClinicianID uuid.UUID
	ClientID    *uuid.UUID
	Date        Date
	StartTime   ClockTime
	EndTime     ClockTime
	Status      AppointmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings are the per-clinician knobs applied during slot generation.
// Zero-value-missing settings fall back to DefaultSettings; a clinician who
// never configured availability still gets a readable calendar.
type Settings struct {
	GranularityMinutes int
	MinNotice          time.Duration
	MaxAdvanceDays     int
	TimeZone           string
}

// DefaultSettings documents the fallback applied when no settings row exists.
func DefaultSettings() Settings {
	return Settings{
		GranularityMinutes: 60,
		MinNotice:          24 * time.Hour,
		MaxAdvanceDays:     30,
		TimeZone:           "America/New_York",
	}
}

// BookableSlot is one fixed-granularity unit offered to a client. The UTC
// instants are what a booking persists; the display strings are rendered in
// the requesting client's zone.
type BookableSlot struct {
	StartUTC          time.Time `json:"start_utc"`
	EndUTC            time.Time `json:"end_utc"`
	StartLocalDisplay string    `json:"start_local"`
	EndLocalDisplay   string    `json:"end_local"`
	Available         bool      `json:"available"`
}
