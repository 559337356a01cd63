package schedule

import (
	"bytes"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// Interval is a labeled [Start, End) window on a single calendar day, in the
// clinician's zone. The ID points back at the source row (block or exception)
// so merged output can explain where open time came from.
type Interval struct {
	ID    uuid.UUID
	Start ClockTime
	End   ClockTime
}

// ResolvedInterval is a maximal contiguous block of open time produced by
// merging, tagged with every source interval absorbed into it. It is derived
// per request and never cached: the underlying rows change independently.
type ResolvedInterval struct {
	Start     ClockTime   `json:"start"`
	End       ClockTime   `json:"end"`
	SourceIDs []uuid.UUID `json:"source_ids"`
}

// Merge combines overlapping and touching intervals into maximal contiguous
// blocks. Inputs with end <= start are rejected outright; they indicate a
// caller bug or corrupted data and must never be silently dropped.
func Merge(intervals []Interval) ([]ResolvedInterval, error) {
	for _, iv := range intervals {
		if iv.End <= iv.Start {
			return nil, fmt.Errorf("%w: %s [%s, %s)", ErrInvalidInterval, iv.ID, iv.Start, iv.End)
		}
	}
	if len(intervals) == 0 {
		return []ResolvedInterval{}, nil
	}

	sorted := slices.Clone(intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		if sorted[i].End != sorted[j].End {
			return sorted[i].End < sorted[j].End
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	out := []ResolvedInterval{{
		Start:     sorted[0].Start,
		End:       sorted[0].End,
		SourceIDs: []uuid.UUID{sorted[0].ID},
	}}
	for _, iv := range sorted[1:] {
		cur := &out[len(out)-1]
		if iv.Start <= cur.End {
			// Touching counts as mergeable: [9,10) + [10,11) = [9,11).
			if iv.End > cur.End {
				cur.End = iv.End
			}
			cur.SourceIDs = appendSourceID(cur.SourceIDs, iv.ID)
			continue
		}
		out = append(out, ResolvedInterval{
			Start:     iv.Start,
			End:       iv.End,
			SourceIDs: []uuid.UUID{iv.ID},
		})
	}
	return out, nil
}

// Subtract removes [cutStart, cutEnd) from every resolved interval, splitting
// a block into up to two remainders or dropping it when fully covered. A
// partial overlap at either edge shrinks the remainder; it never deletes the
// whole block.
func Subtract(resolved []ResolvedInterval, cutStart, cutEnd ClockTime) ([]ResolvedInterval, error) {
	if cutEnd <= cutStart {
		return nil, fmt.Errorf("%w: subtracting [%s, %s)", ErrInvalidInterval, cutStart, cutEnd)
	}
	out := make([]ResolvedInterval, 0, len(resolved))
	for _, ri := range resolved {
		if cutEnd <= ri.Start || cutStart >= ri.End {
			out = append(out, ri)
			continue
		}
		if ri.Start < cutStart {
			out = append(out, ResolvedInterval{Start: ri.Start, End: cutStart, SourceIDs: slices.Clone(ri.SourceIDs)})
		}
		if cutEnd < ri.End {
			out = append(out, ResolvedInterval{Start: cutEnd, End: ri.End, SourceIDs: slices.Clone(ri.SourceIDs)})
		}
	}
	return out, nil
}

func appendSourceID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
