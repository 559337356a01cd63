package schedule

import (
	"fmt"
	"sort"
	"time"
)

// LocalToUTC converts a wall-clock moment in an IANA zone to the absolute UTC
// instant it names. Times skipped by a spring-forward transition fail with
// *DSTGapError. Times that occur twice during a fall-back transition resolve
// to the earlier (pre-transition) instant, so repeated calls with the same
// input always return the same instant.
func LocalToUTC(dateStr, timeStr, zone string) (time.Time, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	ct, err := ParseClockTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return instantAt(d, ct, loc)
}

// UTCToLocal renders an instant as a date and clock-time pair in the given
// zone.
func UTCToLocal(instant time.Time, zone string) (dateStr, timeStr string, err error) {
	loc, err := loadZone(zone)
	if err != nil {
		return "", "", err
	}
	lt := instant.In(loc)
	return lt.Format(time.DateOnly), lt.Format(time.TimeOnly), nil
}

func loadZone(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, zone)
	}
	return loc, nil
}

// instantAt resolves a zone-naive (date, clock) pair against loc. Rather than
// trusting time.Date's normalization across DST transitions, it tries every
// UTC offset in force around that day and keeps the interpretations whose
// wall clock reads back exactly as requested: zero matches is a gap, two is a
// fold.
func instantAt(d Date, ct ClockTime, loc *time.Location) (time.Time, error) {
	if ct == secondsPerDay {
		// A block ending at 24:00:00 ends at the next day's midnight.
		return instantAt(d.AddDays(1), 0, loc)
	}
	h, m, s := ct.Clock()
	wall := time.Date(d.Year, d.Month, d.Day, h, m, s, 0, time.UTC)

	offsets := map[int]struct{}{}
	for _, sample := range []time.Time{wall.Add(-26 * time.Hour), wall, wall.Add(26 * time.Hour)} {
		_, off := sample.In(loc).Zone()
		offsets[off] = struct{}{}
	}

	var matches []time.Time
	for off := range offsets {
		utc := wall.Add(-time.Duration(off) * time.Second)
		lt := utc.In(loc)
		if lt.Year() == d.Year && lt.Month() == d.Month && lt.Day() == d.Day &&
			lt.Hour() == h && lt.Minute() == m && lt.Second() == s {
			matches = append(matches, utc)
		}
	}

	switch len(matches) {
	case 0:
		return time.Time{}, &DSTGapError{Date: d.String(), Time: ct.String(), Zone: loc.String()}
	case 1:
		return matches[0], nil
	}
	// Ambiguous (fold): deterministically pick the earlier instant.
	sort.Slice(matches, func(i, j int) bool { return matches[i].Before(matches[j]) })
	return matches[0], nil
}
