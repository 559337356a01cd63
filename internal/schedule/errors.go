package schedule

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers. Handlers map these onto HTTP statuses.
var (
	// ErrInvalidTimeZone means the IANA zone name could not be resolved.
	ErrInvalidTimeZone = errors.New("schedule: invalid time zone")
	// ErrInvalidDateTimeFormat means a date or clock-time string failed to parse.
	ErrInvalidDateTimeFormat = errors.New("schedule: invalid date/time format")
	// ErrInvalidInterval means an interval had end <= start.
	ErrInvalidInterval = errors.New("schedule: invalid interval")
	// ErrMissingContext means a transition was attempted without a clinician or date.
	ErrMissingContext = errors.New("schedule: missing clinician or date context")
	// ErrSlotConflict means a booking collided with an existing active appointment.
	// The caller should re-resolve availability and retry with fresh slots.
	ErrSlotConflict = errors.New("schedule: slot already booked")
)

// DSTGapError reports a local wall-clock time that does not exist because
// clocks jumped over it in a spring-forward transition. The stated time is
// never rounded to either side; the caller must pick a different time.
type DSTGapError struct {
	Date string
	Time string
	Zone string
}

func (e *DSTGapError) Error() string {
	return fmt.Sprintf("schedule: local time %s %s does not exist in %s (daylight saving gap)", e.Date, e.Time, e.Zone)
}
