package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func chicagoSettings(granularityMin int) Settings {
	return Settings{
		GranularityMinutes: granularityMin,
		MinNotice:          24 * time.Hour,
		MaxAdvanceDays:     30,
		TimeZone:           "America/Chicago",
	}
}

// fixedNow pins "today" to 2025-10-27 09:00 in Chicago.
func fixedNow() time.Time {
	loc, _ := time.LoadLocation("America/Chicago")
	return time.Date(2025, 10, 27, 9, 0, 0, 0, loc)
}

func newTestGenerator(src *fakeSource) *SlotGenerator {
	return NewSlotGenerator(NewResolver(src), src).WithNow(fixedNow)
}

func TestGenerateMarksOverlappedSlotUnavailable(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "11:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		appointments: map[string][]Appointment{
			mondayNov3.String(): {{
				ID: uuid.New(), ClinicianID: clinician, Date: mondayNov3,
				StartTime: MustClockTime("09:30"), EndTime: MustClockTime("10:00"),
				Status: StatusScheduled,
			}},
		},
	}

	slots, err := newTestGenerator(src).Generate(context.Background(), clinician, mondayNov3, chicagoSettings(30), "America/Chicago")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 half-hour slots from 9-11, got %d", len(slots))
	}
	wantAvailable := []bool{true, false, true, true} // only the 9:30 slot is taken
	for i, slot := range slots {
		if slot.Available != wantAvailable[i] {
			t.Fatalf("slot %d availability = %v, want %v (%+v)", i, slot.Available, wantAvailable[i], slot)
		}
	}
	// 09:30 CST on 2025-11-03 is 15:30 UTC.
	if !slots[1].StartUTC.Equal(time.Date(2025, 11, 3, 15, 30, 0, 0, time.UTC)) {
		t.Fatalf("unavailable slot start wrong: %s", slots[1].StartUTC)
	}
}

func TestGeneratePartialOverlapStillBlocksSlot(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "11:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		appointments: map[string][]Appointment{
			mondayNov3.String(): {{
				ID: uuid.New(), ClinicianID: clinician, Date: mondayNov3,
				StartTime: MustClockTime("09:45"), EndTime: MustClockTime("10:15"),
				Status: StatusConfirmed,
			}},
		},
	}

	slots, err := newTestGenerator(src).Generate(context.Background(), clinician, mondayNov3, chicagoSettings(30), "America/Chicago")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantAvailable := []bool{true, false, false, true} // 9:30 and 10:00 both touched
	for i, slot := range slots {
		if slot.Available != wantAvailable[i] {
			t.Fatalf("slot %d availability = %v, want %v", i, slot.Available, wantAvailable[i])
		}
	}
}

func TestGenerateCancelledAppointmentFreesSlot(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "10:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		appointments: map[string][]Appointment{
			mondayNov3.String(): {{
				ID: uuid.New(), ClinicianID: clinician, Date: mondayNov3,
				StartTime: MustClockTime("09:00"), EndTime: MustClockTime("10:00"),
				Status: StatusCancelled,
			}},
		},
	}
	slots, err := newTestGenerator(src).Generate(context.Background(), clinician, mondayNov3, chicagoSettings(60), "America/Chicago")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(slots) != 1 || !slots[0].Available {
		t.Fatalf("cancelled appointment should not consume the slot: %+v", slots)
	}
}

func TestGenerateDiscardsTrailingPartialSlot(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "10:45")
	src := &fakeSource{blocks: []WeeklyAvailabilityBlock{block}}

	slots, err := newTestGenerator(src).Generate(context.Background(), clinician, mondayNov3, chicagoSettings(30), "America/Chicago")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("10:30-10:45 partial should be discarded; got %d slots", len(slots))
	}
}

func TestGenerateWindowEnforcement(t *testing.T) {
	clinician := uuid.New()
	today := DateOf(fixedNow()) // 2025-10-27, a Monday
	src := &fakeSource{blocks: []WeeklyAvailabilityBlock{{
		ID: uuid.New(), ClinicianID: clinician, DayOfWeek: time.Monday,
		StartTime: MustClockTime("09:00"), EndTime: MustClockTime("10:00"), IsActive: true,
	}}}
	// Make every weekday available so any requested date resolves.
	for d := time.Sunday; d <= time.Saturday; d++ {
		src.blocks = append(src.blocks, WeeklyAvailabilityBlock{
			ID: uuid.New(), ClinicianID: clinician, DayOfWeek: d,
			StartTime: MustClockTime("09:00"), EndTime: MustClockTime("10:00"), IsActive: true,
		})
	}
	gen := newTestGenerator(src)
	set := chicagoSettings(60) // min notice 24h, max advance 30 days

	cases := []struct {
		name  string
		date  Date
		empty bool
	}{
		{"yesterday", today.AddDays(-1), true},
		{"today inside notice", today, true},
		{"tomorrow at the notice boundary", today.AddDays(1), false},
		{"at max advance", today.AddDays(30), false},
		{"past max advance", today.AddDays(31), true},
	}
	for _, tc := range cases {
		slots, err := gen.Generate(context.Background(), clinician, tc.date, set, "America/Chicago")
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if tc.empty && len(slots) != 0 {
			t.Fatalf("%s: expected empty list, got %d slots", tc.name, len(slots))
		}
		if !tc.empty && len(slots) == 0 {
			t.Fatalf("%s: expected slots, got none", tc.name)
		}
	}
}

func TestGenerateConvertsToClientZone(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "10:00")
	src := &fakeSource{blocks: []WeeklyAvailabilityBlock{block}}

	slots, err := newTestGenerator(src).Generate(context.Background(), clinician, mondayNov3, chicagoSettings(60), "America/New_York")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	// 09:00 Chicago (CST) = 10:00 New York.
	if slots[0].StartLocalDisplay != "2025-11-03T10:00:00-05:00" {
		t.Fatalf("client display wrong: %s", slots[0].StartLocalDisplay)
	}
	if !slots[0].StartUTC.Equal(time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("UTC instant wrong: %s", slots[0].StartUTC)
	}
}

func TestGenerateEmptyDayReturnsEmptyList(t *testing.T) {
	slots, err := newTestGenerator(&fakeSource{}).Generate(context.Background(), uuid.New(), mondayNov3, chicagoSettings(60), "America/Chicago")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", slots)
	}
}

func TestGenerateInvalidZones(t *testing.T) {
	gen := newTestGenerator(&fakeSource{})
	set := chicagoSettings(60)
	set.TimeZone = "Not/AZone"
	if _, err := gen.Generate(context.Background(), uuid.New(), mondayNov3, set, "America/Chicago"); !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("bad clinician zone: expected ErrInvalidTimeZone, got %v", err)
	}
	if _, err := gen.Generate(context.Background(), uuid.New(), mondayNov3, chicagoSettings(60), "Not/AZone"); !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("bad client zone: expected ErrInvalidTimeZone, got %v", err)
	}
}
