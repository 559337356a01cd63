package schedule

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ClockTime is a zone-naive time of day, counted in seconds from local
// midnight. It is only meaningful alongside a clinician's configured IANA
// zone. The range is [0, 24h]; the upper bound is allowed so a block may end
// exactly at midnight.
type ClockTime int

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 24 * secondsPerHour
)

// ParseClockTime parses "HH:MM" or "HH:MM:SS". Every position must be a
// digit or separating colon; partial matches and trailing bytes are rejected.
func ParseClockTime(s string) (ClockTime, error) {
	if len(s) != 5 && len(s) != 8 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDateTimeFormat, s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	sec := 0
	ok := okH && okM && s[2] == ':'
	if len(s) == 8 {
		var okS bool
		sec, okS = twoDigits(s[6:8])
		ok = ok && okS && s[5] == ':'
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDateTimeFormat, s)
	}
	if m > 59 || sec > 59 || (h > 23 && !(h == 24 && m == 0 && sec == 0)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDateTimeFormat, s)
	}
	return ClockTime(h*secondsPerHour + m*secondsPerMinute + sec), nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// MustClockTime is a test/fixture helper that panics on parse failure.
func MustClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

// Clock returns the hour, minute and second components.
func (c ClockTime) Clock() (hour, min, sec int) {
	return int(c) / secondsPerHour, int(c) % secondsPerHour / secondsPerMinute, int(c) % secondsPerMinute
}

func (c ClockTime) String() string {
	h, m, s := c.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// AddMinutes returns the clock time n minutes later. Callers are responsible
// for staying within the same day.
func (c ClockTime) AddMinutes(n int) ClockTime {
	return c + ClockTime(n*secondsPerMinute)
}

// Scan implements sql.Scanner so TIME columns load directly into ClockTime.
func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c = ClockTime(v.Hour()*secondsPerHour + v.Minute()*secondsPerMinute + v.Second())
		return nil
	case string:
		ct, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = ct
		return nil
	case []byte:
		return c.Scan(string(v))
	}
	return fmt.Errorf("schedule: cannot scan %T into ClockTime", src)
}

// Value implements driver.Valuer; Postgres casts the text form to TIME.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// MarshalJSON renders the time as "HH:MM:SS".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDateTimeFormat, string(b))
	}
	parsed, err := ParseClockTime(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Date is a calendar date with no zone attached. Like ClockTime it must be
// paired with the clinician's zone to become an instant.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD", rejecting impossible days such as Feb 30.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateTimeFormat, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday returns the day of week (Sunday = 0), matching how weekly
// availability blocks are keyed.
func (d Date) Weekday() time.Weekday {
	return d.midnightUTC().Weekday()
}

// In returns local midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

// DaysSince returns the number of calendar days from o to d (negative when d
// is earlier).
func (d Date) DaysSince(o Date) int {
	return int(d.midnightUTC().Sub(o.midnightUTC()) / (24 * time.Hour))
}

func (d Date) Equal(o Date) bool {
	return d == o
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDateTimeFormat, string(b))
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("schedule: cannot scan %T into Date", src)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.midnightUTC(), nil
}
