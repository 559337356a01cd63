package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source is the narrow read surface the engine needs from storage. All reads
// are scoped to one clinician and one date; the engine holds no cross-request
// state of its own.
type Source interface {
	WeeklyBlocks(ctx context.Context, clinicianID uuid.UUID, day time.Weekday) ([]WeeklyAvailabilityBlock, error)
	Exceptions(ctx context.Context, clinicianID uuid.UUID, date Date) ([]AvailabilityException, error)
	TimeBlocks(ctx context.Context, clinicianID uuid.UUID, date Date) ([]TimeBlock, error)
	// ActiveAppointments returns appointments in scheduled or confirmed status.
	ActiveAppointments(ctx context.Context, clinicianID uuid.UUID, date Date) ([]Appointment, error)
}

// Resolver reduces the three competing availability sources (weekly pattern,
// per-date exceptions, blackouts) to the clinician's raw open intervals for a
// date. Later stages only remove or override time, never re-add removed time.
type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	if src == nil {
		panic("schedule: source required")
	}
	return &Resolver{src: src}
}

// Resolve computes the merged, blackout-net open intervals for one date, in
// the clinician's local clock. Appointments are not subtracted here; that is
// slot generation's job.
func (r *Resolver) Resolve(ctx context.Context, clinicianID uuid.UUID, date Date) ([]ResolvedInterval, error) {
	if clinicianID == uuid.Nil || date.IsZero() {
		return nil, ErrMissingContext
	}

	blocks, err := r.src.WeeklyBlocks(ctx, clinicianID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("schedule: load weekly blocks: %w", err)
	}
	exceptions, err := r.src.Exceptions(ctx, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("schedule: load exceptions: %w", err)
	}

	// Index occurrence overrides by parent block. Uniqueness of non-deleted
	// exceptions per (clinician, date, block) is a storage invariant; if the
	// data is corrupt the last row read wins deterministically.
	overrides := make(map[uuid.UUID]AvailabilityException)
	var standalone []AvailabilityException
	for _, ex := range exceptions {
		if ex.Standalone() {
			if !ex.IsDeleted {
				standalone = append(standalone, ex)
			}
			continue
		}
		overrides[*ex.OriginalBlockID] = ex
	}

	var intervals []Interval
	for _, b := range blocks {
		if !b.IsActive {
			continue
		}
		if ex, ok := overrides[b.ID]; ok {
			if ex.IsDeleted {
				continue // this occurrence is cancelled
			}
			if ex.StartTime != nil && ex.EndTime != nil {
				intervals = append(intervals, Interval{ID: ex.ID, Start: *ex.StartTime, End: *ex.EndTime})
				continue
			}
		}
		intervals = append(intervals, Interval{ID: b.ID, Start: b.StartTime, End: b.EndTime})
	}
	for _, ex := range standalone {
		if ex.StartTime == nil || ex.EndTime == nil {
			return nil, fmt.Errorf("%w: standalone exception %s has no times", ErrInvalidInterval, ex.ID)
		}
		intervals = append(intervals, Interval{ID: ex.ID, Start: *ex.StartTime, End: *ex.EndTime})
	}

	resolved, err := Merge(intervals)
	if err != nil {
		return nil, err
	}

	blackouts, err := r.src.TimeBlocks(ctx, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("schedule: load time blocks: %w", err)
	}
	for _, tb := range blackouts {
		resolved, err = Subtract(resolved, tb.StartTime, tb.EndTime)
		if err != nil {
			return nil, fmt.Errorf("schedule: blackout %s: %w", tb.ID, err)
		}
	}
	return resolved, nil
}
