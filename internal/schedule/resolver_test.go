package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeSource is an in-memory Source for engine tests.
type fakeSource struct {
	blocks       []WeeklyAvailabilityBlock
	exceptions   map[string][]AvailabilityException // keyed by date string
	timeBlocks   map[string][]TimeBlock
	appointments map[string][]Appointment
}

func (f *fakeSource) WeeklyBlocks(_ context.Context, clinicianID uuid.UUID, day time.Weekday) ([]WeeklyAvailabilityBlock, error) {
	var out []WeeklyAvailabilityBlock
	for _, b := range f.blocks {
		if b.ClinicianID == clinicianID && b.DayOfWeek == day && b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSource) Exceptions(_ context.Context, clinicianID uuid.UUID, date Date) ([]AvailabilityException, error) {
	var out []AvailabilityException
	for _, ex := range f.exceptions[date.String()] {
		if ex.ClinicianID == clinicianID {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeSource) TimeBlocks(_ context.Context, clinicianID uuid.UUID, date Date) ([]TimeBlock, error) {
	var out []TimeBlock
	for _, tb := range f.timeBlocks[date.String()] {
		if tb.ClinicianID == clinicianID {
			out = append(out, tb)
		}
	}
	return out, nil
}

func (f *fakeSource) ActiveAppointments(_ context.Context, clinicianID uuid.UUID, date Date) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments[date.String()] {
		if a.ClinicianID == clinicianID && a.Status.Active() {
			out = append(out, a)
		}
	}
	return out, nil
}

var (
	mondayNov3  = Date{Year: 2025, Month: time.November, Day: 3}  // a Monday
	mondayNov10 = Date{Year: 2025, Month: time.November, Day: 10} // the next Monday
)

func mondayBlock(clinicianID uuid.UUID, start, end string) WeeklyAvailabilityBlock {
	return WeeklyAvailabilityBlock{
		ID:          uuid.New(),
		ClinicianID: clinicianID,
		DayOfWeek:   time.Monday,
		StartTime:   MustClockTime(start),
		EndTime:     MustClockTime(end),
		IsActive:    true,
	}
}

func TestResolveUsesWeeklyBlockUnmodified(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "12:00")
	src := &fakeSource{blocks: []WeeklyAvailabilityBlock{block}}

	out, err := NewResolver(src).Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Start != MustClockTime("09:00") || out[0].End != MustClockTime("12:00") {
		t.Fatalf("unexpected resolution: %+v", out)
	}
	if len(out[0].SourceIDs) != 1 || out[0].SourceIDs[0] != block.ID {
		t.Fatalf("provenance should name the weekly block: %+v", out[0])
	}
}

func TestResolveCancelledOccurrenceExcludedOnlyOnThatDate(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "12:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		exceptions: map[string][]AvailabilityException{
			mondayNov3.String(): {{
				ID:              uuid.New(),
				ClinicianID:     clinician,
				SpecificDate:    mondayNov3,
				OriginalBlockID: &block.ID,
				IsDeleted:       true,
			}},
		},
	}
	r := NewResolver(src)

	cancelled, err := r.Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve cancelled Monday: %v", err)
	}
	if len(cancelled) != 0 {
		t.Fatalf("cancelled occurrence should yield no intervals, got %+v", cancelled)
	}

	other, err := r.Resolve(context.Background(), clinician, mondayNov10)
	if err != nil {
		t.Fatalf("Resolve other Monday: %v", err)
	}
	if len(other) != 1 || other[0].Start != MustClockTime("09:00") {
		t.Fatalf("other Mondays should still show 9-12, got %+v", other)
	}
}

func TestResolveOverrideSubstitutesTimes(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "12:00")
	start, end := MustClockTime("14:00"), MustClockTime("16:00")
	ex := AvailabilityException{
		ID:              uuid.New(),
		ClinicianID:     clinician,
		SpecificDate:    mondayNov3,
		OriginalBlockID: &block.ID,
		StartTime:       &start,
		EndTime:         &end,
	}
	src := &fakeSource{
		blocks:     []WeeklyAvailabilityBlock{block},
		exceptions: map[string][]AvailabilityException{mondayNov3.String(): {ex}},
	}

	out, err := NewResolver(src).Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Start != start || out[0].End != end {
		t.Fatalf("override times should win: %+v", out)
	}
	if out[0].SourceIDs[0] != ex.ID {
		t.Fatalf("provenance should name the exception, got %v", out[0].SourceIDs)
	}
}

func TestResolveStandaloneExceptionAddsTime(t *testing.T) {
	clinician := uuid.New()
	start, end := MustClockTime("18:00"), MustClockTime("20:00")
	src := &fakeSource{
		exceptions: map[string][]AvailabilityException{
			mondayNov3.String(): {{
				ID:           uuid.New(),
				ClinicianID:  clinician,
				SpecificDate: mondayNov3,
				StartTime:    &start,
				EndTime:      &end,
			}},
		},
	}
	out, err := NewResolver(src).Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Start != start || out[0].End != end {
		t.Fatalf("standalone exception should appear: %+v", out)
	}
}

func TestResolveSubtractsBlackouts(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "17:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		timeBlocks: map[string][]TimeBlock{
			mondayNov3.String(): {
				{ID: uuid.New(), ClinicianID: clinician, Date: mondayNov3, StartTime: MustClockTime("12:00"), EndTime: MustClockTime("13:00"), Reason: "lunch"},
				{ID: uuid.New(), ClinicianID: clinician, Date: mondayNov3, StartTime: MustClockTime("16:00"), EndTime: MustClockTime("18:00"), Reason: "leave early"},
			},
		},
	}
	out, err := NewResolver(src).Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 remaining intervals, got %+v", out)
	}
	if out[0].End != MustClockTime("12:00") || out[1].Start != MustClockTime("13:00") || out[1].End != MustClockTime("16:00") {
		t.Fatalf("blackout subtraction wrong: %+v", out)
	}
}

func TestResolveMergesBlockAndStandalone(t *testing.T) {
	clinician := uuid.New()
	block := mondayBlock(clinician, "09:00", "12:00")
	start, end := MustClockTime("11:00"), MustClockTime("14:00")
	src := &fakeSource{
		blocks: []WeeklyAvailabilityBlock{block},
		exceptions: map[string][]AvailabilityException{
			mondayNov3.String(): {{
				ID: uuid.New(), ClinicianID: clinician, SpecificDate: mondayNov3,
				StartTime: &start, EndTime: &end,
			}},
		},
	}
	out, err := NewResolver(src).Resolve(context.Background(), clinician, mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Start != MustClockTime("09:00") || out[0].End != MustClockTime("14:00") {
		t.Fatalf("overlapping sources should merge: %+v", out)
	}
	if len(out[0].SourceIDs) != 2 {
		t.Fatalf("merged block should carry both sources: %+v", out[0])
	}
}

func TestResolveMissingContext(t *testing.T) {
	r := NewResolver(&fakeSource{})
	if _, err := r.Resolve(context.Background(), uuid.Nil, mondayNov3); err != ErrMissingContext {
		t.Fatalf("expected ErrMissingContext for nil clinician, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), uuid.New(), Date{}); err != ErrMissingContext {
		t.Fatalf("expected ErrMissingContext for zero date, got %v", err)
	}
}

func TestResolveEmptyDayIsNotAnError(t *testing.T) {
	out, err := NewResolver(&fakeSource{}).Resolve(context.Background(), uuid.New(), mondayNov3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty resolution, got %+v", out)
	}
}
