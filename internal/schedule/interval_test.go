package schedule

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func iv(id uuid.UUID, start, end string) Interval {
	return Interval{ID: id, Start: MustClockTime(start), End: MustClockTime(end)}
}

func TestMergeOverlappingAndTouching(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	out, err := Merge([]Interval{
		iv(c, "13:00", "14:00"),
		iv(a, "09:00", "10:30"),
		iv(b, "10:00", "11:00"),
		iv(d, "11:00", "12:00"), // touching b: still one block
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(out), out)
	}
	if out[0].Start != MustClockTime("09:00") || out[0].End != MustClockTime("12:00") {
		t.Fatalf("first block wrong: [%s, %s)", out[0].Start, out[0].End)
	}
	if len(out[0].SourceIDs) != 3 {
		t.Fatalf("expected provenance of 3 sources, got %v", out[0].SourceIDs)
	}
	if out[1].Start != MustClockTime("13:00") || len(out[1].SourceIDs) != 1 || out[1].SourceIDs[0] != c {
		t.Fatalf("second block wrong: %+v", out[1])
	}
}

func TestMergeContainedInterval(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	out, err := Merge([]Interval{iv(a, "09:00", "17:00"), iv(b, "10:00", "11:00")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out) != 1 || out[0].End != MustClockTime("17:00") {
		t.Fatalf("contained interval should not change bounds: %+v", out)
	}
}

func TestMergeIdempotent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	once, err := Merge([]Interval{iv(a, "09:00", "10:30"), iv(b, "10:00", "12:00")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	// Re-merge the already-merged output.
	var again []Interval
	for _, ri := range once {
		again = append(again, Interval{ID: ri.SourceIDs[0], Start: ri.Start, End: ri.End})
	}
	twice, err := Merge(again)
	if err != nil {
		t.Fatalf("re-merge: %v", err)
	}
	if len(twice) != len(once) {
		t.Fatalf("re-merge changed block count: %d vs %d", len(twice), len(once))
	}
	for i := range twice {
		if twice[i].Start != once[i].Start || twice[i].End != once[i].End {
			t.Fatalf("re-merge changed bounds at %d", i)
		}
	}
}

func TestMergeRejectsInvalidInterval(t *testing.T) {
	id := uuid.New()
	if _, err := Merge([]Interval{iv(id, "10:00", "10:00")}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("zero-length interval: expected ErrInvalidInterval, got %v", err)
	}
	if _, err := Merge([]Interval{iv(id, "11:00", "10:00")}); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("inverted interval: expected ErrInvalidInterval, got %v", err)
	}
}

func TestMergeEmpty(t *testing.T) {
	out, err := Merge(nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty result, got %v, %v", out, err)
	}
}

func TestSubtractSplitsBlock(t *testing.T) {
	a := uuid.New()
	base := []ResolvedInterval{{Start: MustClockTime("09:00"), End: MustClockTime("17:00"), SourceIDs: []uuid.UUID{a}}}

	out, err := Subtract(base, MustClockTime("12:00"), MustClockTime("13:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected split into 2, got %+v", out)
	}
	if out[0].End != MustClockTime("12:00") || out[1].Start != MustClockTime("13:00") {
		t.Fatalf("split bounds wrong: %+v", out)
	}
	if len(out[0].SourceIDs) != 1 || out[0].SourceIDs[0] != a {
		t.Fatalf("provenance lost on split: %+v", out[0])
	}
}

func TestSubtractEdgeOverlapShrinks(t *testing.T) {
	base := []ResolvedInterval{{Start: MustClockTime("09:00"), End: MustClockTime("12:00")}}

	out, err := Subtract(base, MustClockTime("08:00"), MustClockTime("10:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if len(out) != 1 || out[0].Start != MustClockTime("10:00") || out[0].End != MustClockTime("12:00") {
		t.Fatalf("leading overlap should shrink, not delete: %+v", out)
	}

	out, err = Subtract(base, MustClockTime("11:00"), MustClockTime("14:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if len(out) != 1 || out[0].End != MustClockTime("11:00") {
		t.Fatalf("trailing overlap should shrink, not delete: %+v", out)
	}
}

func TestSubtractFullCoverRemoves(t *testing.T) {
	base := []ResolvedInterval{{Start: MustClockTime("09:00"), End: MustClockTime("12:00")}}
	out, err := Subtract(base, MustClockTime("09:00"), MustClockTime("12:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("fully covered block should be removed: %+v", out)
	}
}

func TestSubtractNoOverlapKeeps(t *testing.T) {
	base := []ResolvedInterval{{Start: MustClockTime("09:00"), End: MustClockTime("12:00")}}
	out, err := Subtract(base, MustClockTime("12:00"), MustClockTime("13:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if len(out) != 1 || out[0].Start != MustClockTime("09:00") {
		t.Fatalf("touching cut should not change block: %+v", out)
	}
}

func TestSubtractRejectsInvalidCut(t *testing.T) {
	base := []ResolvedInterval{{Start: MustClockTime("09:00"), End: MustClockTime("12:00")}}
	if _, err := Subtract(base, MustClockTime("13:00"), MustClockTime("12:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

// Coverage invariant: union of outputs equals union of inputs minus cuts.
func TestMergeSubtractCoverage(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged, err := Merge([]Interval{iv(a, "09:00", "12:00"), iv(b, "13:00", "16:00")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	out, err := Subtract(merged, MustClockTime("11:00"), MustClockTime("14:00"))
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	var total ClockTime
	for _, ri := range out {
		total += ri.End - ri.Start
	}
	// (9-12 + 13-16) = 6h; cut removes 11-12 and 13-14 = 2h.
	if total != ClockTime(4*secondsPerHour) {
		t.Fatalf("coverage mismatch: got %d seconds", total)
	}
}
