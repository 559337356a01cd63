package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// EditScope selects how far a change to a recurring block reaches.
type EditScope int

const (
	// ScopeOccurrence touches only one dated occurrence, via an exception row.
	ScopeOccurrence EditScope = iota
	// ScopeSeries mutates the parent weekly block itself.
	ScopeSeries
)

func (s EditScope) String() string {
	switch s {
	case ScopeOccurrence:
		return "occurrence"
	case ScopeSeries:
		return "series"
	}
	return fmt.Sprintf("EditScope(%d)", int(s))
}

// OccurrenceState describes one (block, date) pair.
type OccurrenceState int

const (
	StateUnmodified OccurrenceState = iota
	StateOverridden
	StateCancelled
)

func (s OccurrenceState) String() string {
	switch s {
	case StateUnmodified:
		return "unmodified"
	case StateOverridden:
		return "overridden"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("OccurrenceState(%d)", int(s))
}

// ExceptionStore is the write surface the manager needs.
type ExceptionStore interface {
	// FindException returns the non-deleted-or-not exception for the key, or
	// nil when none exists.
	FindException(ctx context.Context, clinicianID uuid.UUID, date Date, blockID uuid.UUID) (*AvailabilityException, error)
	InsertException(ctx context.Context, ex *AvailabilityException) error
	UpdateException(ctx context.Context, ex *AvailabilityException) error
	UpdateBlockTimes(ctx context.Context, blockID uuid.UUID, start, end ClockTime) error
	DeactivateBlock(ctx context.Context, blockID uuid.UUID) error
}

// ExceptionManager governs edits and deletes against a recurring weekly block:
// "this occurrence only" works through exception rows keyed by
// (clinician, date, block), "all future occurrences" mutates the parent block.
// Exceptions always win over the parent regardless of when the parent was last
// edited, so past per-date overrides survive series-wide changes.
type ExceptionManager struct {
	store  ExceptionStore
	logger *logging.Logger
}

func NewExceptionManager(store ExceptionStore, logger *logging.Logger) *ExceptionManager {
	if store == nil {
		panic("schedule: exception store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ExceptionManager{store: store, logger: logger}
}

// OverrideOccurrence replaces one occurrence's times with new ones
// (Unmodified|Cancelled -> Overridden). Re-applying updates the existing
// exception row in place; it never inserts a duplicate.
func (m *ExceptionManager) OverrideOccurrence(ctx context.Context, clinicianID uuid.UUID, blockID uuid.UUID, date Date, start, end ClockTime) error {
	if err := requireContext(clinicianID, date); err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: override [%s, %s)", ErrInvalidInterval, start, end)
	}
	return m.upsert(ctx, clinicianID, blockID, date, &start, &end, false)
}

// CancelOccurrence removes one occurrence from the calendar
// (Unmodified|Overridden -> Cancelled). Idempotent.
func (m *ExceptionManager) CancelOccurrence(ctx context.Context, clinicianID uuid.UUID, blockID uuid.UUID, date Date) error {
	if err := requireContext(clinicianID, date); err != nil {
		return err
	}
	return m.upsert(ctx, clinicianID, blockID, date, nil, nil, true)
}

// EditSeries changes the parent block's own times for every occurrence that
// has no exception of its own. Existing per-date exceptions are deliberately
// left untouched.
func (m *ExceptionManager) EditSeries(ctx context.Context, blockID uuid.UUID, start, end ClockTime) error {
	if blockID == uuid.Nil {
		return fmt.Errorf("%w: block id", ErrMissingContext)
	}
	if end <= start {
		return fmt.Errorf("%w: series edit [%s, %s)", ErrInvalidInterval, start, end)
	}
	if err := m.store.UpdateBlockTimes(ctx, blockID, start, end); err != nil {
		return fmt.Errorf("schedule: edit series: %w", err)
	}
	m.logger.Info("series times updated", "block_id", blockID, "start", start.String(), "end", end.String())
	return nil
}

// CancelSeries soft-deactivates the whole recurring block. This is a coarser
// operation than cancelling an occurrence and must not create or touch
// per-date exception rows.
func (m *ExceptionManager) CancelSeries(ctx context.Context, blockID uuid.UUID) error {
	if blockID == uuid.Nil {
		return fmt.Errorf("%w: block id", ErrMissingContext)
	}
	if err := m.store.DeactivateBlock(ctx, blockID); err != nil {
		return fmt.Errorf("schedule: cancel series: %w", err)
	}
	m.logger.Info("series cancelled", "block_id", blockID)
	return nil
}

// State reports where a (block, date) pair sits in the occurrence state
// machine.
func (m *ExceptionManager) State(ctx context.Context, clinicianID uuid.UUID, blockID uuid.UUID, date Date) (OccurrenceState, error) {
	if err := requireContext(clinicianID, date); err != nil {
		return StateUnmodified, err
	}
	ex, err := m.store.FindException(ctx, clinicianID, date, blockID)
	if err != nil {
		return StateUnmodified, fmt.Errorf("schedule: load exception: %w", err)
	}
	switch {
	case ex == nil:
		return StateUnmodified, nil
	case ex.IsDeleted:
		return StateCancelled, nil
	default:
		return StateOverridden, nil
	}
}

func (m *ExceptionManager) upsert(ctx context.Context, clinicianID uuid.UUID, blockID uuid.UUID, date Date, start, end *ClockTime, deleted bool) error {
	if blockID == uuid.Nil {
		return fmt.Errorf("%w: block id", ErrMissingContext)
	}
	existing, err := m.store.FindException(ctx, clinicianID, date, blockID)
	if err != nil {
		return fmt.Errorf("schedule: load exception: %w", err)
	}
	if existing != nil {
		existing.StartTime = start
		existing.EndTime = end
		existing.IsDeleted = deleted
		if err := m.store.UpdateException(ctx, existing); err != nil {
			return fmt.Errorf("schedule: update exception: %w", err)
		}
		m.logger.Info("occurrence exception updated",
			"clinician_id", clinicianID, "block_id", blockID, "date", date.String(), "deleted", deleted)
		return nil
	}
	ex := &AvailabilityException{
		ID:              uuid.New(),
		ClinicianID:     clinicianID,
		SpecificDate:    date,
		OriginalBlockID: &blockID,
		StartTime:       start,
		EndTime:         end,
		IsDeleted:       deleted,
	}
	if err := m.store.InsertException(ctx, ex); err != nil {
		return fmt.Errorf("schedule: insert exception: %w", err)
	}
	m.logger.Info("occurrence exception created",
		"clinician_id", clinicianID, "block_id", blockID, "date", date.String(), "deleted", deleted)
	return nil
}

// AddOneTime records a standalone one-time availability window with no parent
// block. Many may exist per date.
func (m *ExceptionManager) AddOneTime(ctx context.Context, clinicianID uuid.UUID, date Date, start, end ClockTime) (*AvailabilityException, error) {
	if err := requireContext(clinicianID, date); err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("%w: one-time [%s, %s)", ErrInvalidInterval, start, end)
	}
	ex := &AvailabilityException{
		ID:           uuid.New(),
		ClinicianID:  clinicianID,
		SpecificDate: date,
		StartTime:    &start,
		EndTime:      &end,
	}
	if err := m.store.InsertException(ctx, ex); err != nil {
		return nil, fmt.Errorf("schedule: insert one-time: %w", err)
	}
	return ex, nil
}

func requireContext(clinicianID uuid.UUID, date Date) error {
	if clinicianID == uuid.Nil {
		return fmt.Errorf("%w: clinician id", ErrMissingContext)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date", ErrMissingContext)
	}
	return nil
}
