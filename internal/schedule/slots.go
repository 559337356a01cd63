package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotGenerator slices resolved availability into discrete bookable units,
// subtracts booked appointments and applies the clinician's booking window.
type SlotGenerator struct {
	resolver *Resolver
	src      Source
	now      func() time.Time
}

func NewSlotGenerator(resolver *Resolver, src Source) *SlotGenerator {
	if resolver == nil || src == nil {
		panic("schedule: resolver and source required")
	}
	return &SlotGenerator{resolver: resolver, src: src, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (g *SlotGenerator) WithNow(now func() time.Time) *SlotGenerator {
	g.now = now
	return g
}

// Generate computes the bookable slots for one clinician and date, displayed
// in clientZone. The booking window (past date, minimum notice, maximum
// advance) is judged against "today" in the clinician's zone, not the
// client's, so the rule is the same no matter who is browsing. Dates outside
// the window and days with no availability both yield an empty list; neither
// is an error.
func (g *SlotGenerator) Generate(ctx context.Context, clinicianID uuid.UUID, date Date, set Settings, clientZone string) ([]BookableSlot, error) {
	if clinicianID == uuid.Nil || date.IsZero() {
		return nil, ErrMissingContext
	}
	clinicianLoc, err := loadZone(set.TimeZone)
	if err != nil {
		return nil, err
	}
	clientLoc, err := loadZone(clientZone)
	if err != nil {
		return nil, err
	}
	if set.GranularityMinutes <= 0 {
		return nil, fmt.Errorf("%w: granularity %d minutes", ErrInvalidInterval, set.GranularityMinutes)
	}

	today := DateOf(g.now().In(clinicianLoc))
	daysAhead := date.DaysSince(today)
	if daysAhead < 0 {
		return []BookableSlot{}, nil
	}
	if time.Duration(daysAhead)*24*time.Hour < set.MinNotice {
		return []BookableSlot{}, nil
	}
	if set.MaxAdvanceDays > 0 && daysAhead > set.MaxAdvanceDays {
		return []BookableSlot{}, nil
	}

	resolved, err := g.resolver.Resolve(ctx, clinicianID, date)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return []BookableSlot{}, nil
	}

	appts, err := g.src.ActiveAppointments(ctx, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("schedule: load appointments: %w", err)
	}

	var slots []BookableSlot
	for _, ri := range resolved {
		// Slice from the interval start; a trailing partial shorter than the
		// granularity is discarded.
		for s := ri.Start; s.AddMinutes(set.GranularityMinutes) <= ri.End; s = s.AddMinutes(set.GranularityMinutes) {
			e := s.AddMinutes(set.GranularityMinutes)
			slot, err := g.buildSlot(date, s, e, clinicianLoc, clientLoc)
			if err != nil {
				return nil, err
			}
			slot.Available = !overlapsAppointment(appts, s, e)
			slots = append(slots, slot)
		}
	}
	if slots == nil {
		slots = []BookableSlot{}
	}
	return slots, nil
}

func (g *SlotGenerator) buildSlot(date Date, start, end ClockTime, clinicianLoc, clientLoc *time.Location) (BookableSlot, error) {
	startUTC, err := instantAt(date, start, clinicianLoc)
	if err != nil {
		return BookableSlot{}, err
	}
	endUTC, err := instantAt(date, end, clinicianLoc)
	if err != nil {
		return BookableSlot{}, err
	}
	return BookableSlot{
		StartUTC:          startUTC,
		EndUTC:            endUTC,
		StartLocalDisplay: startUTC.In(clientLoc).Format(time.RFC3339),
		EndLocalDisplay:   endUTC.In(clientLoc).Format(time.RFC3339),
	}, nil
}

// overlapsAppointment reports whether [start, end) intersects any active
// appointment. Any overlap makes the slot unbookable, not just an exact
// match.
func overlapsAppointment(appts []Appointment, start, end ClockTime) bool {
	for _, a := range appts {
		if !a.Status.Active() {
			continue
		}
		if a.StartTime < end && a.EndTime > start {
			return true
		}
	}
	return false
}
