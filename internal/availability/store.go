// Package availability persists the three availability sources (weekly
// blocks, per-date exceptions, blackouts) and appointments, and exposes the
// read surface the scheduling engine resolves from.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides CRUD over availability rows. It satisfies both
// schedule.Source and schedule.ExceptionStore.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// --- weekly blocks ---

// CreateWeeklyBlock inserts a recurring block for one weekday.
func (s *Store) CreateWeeklyBlock(ctx context.Context, b *schedule.WeeklyAvailabilityBlock) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	b.IsActive = true
	_, err := s.db.Exec(ctx, `
		INSERT INTO availability_blocks (id, clinician_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.ClinicianID, int(b.DayOfWeek), b.StartTime, b.EndTime, b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("availability: create weekly block: %w", err)
	}
	return nil
}

// WeeklyBlocks returns the active recurring blocks for one weekday.
func (s *Store) WeeklyBlocks(ctx context.Context, clinicianID uuid.UUID, day time.Weekday) ([]schedule.WeeklyAvailabilityBlock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinician_id, day_of_week, start_time::text, end_time::text, is_active, created_at, updated_at
		FROM availability_blocks
		WHERE clinician_id = $1 AND day_of_week = $2 AND is_active
		ORDER BY start_time ASC`, clinicianID, int(day))
	if err != nil {
		return nil, fmt.Errorf("availability: list weekly blocks: %w", err)
	}
	defer rows.Close()
	return scanBlocks(rows)
}

// ListWeeklyBlocks returns every block for a clinician, active or not, for
// the settings view.
func (s *Store) ListWeeklyBlocks(ctx context.Context, clinicianID uuid.UUID) ([]schedule.WeeklyAvailabilityBlock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinician_id, day_of_week, start_time::text, end_time::text, is_active, created_at, updated_at
		FROM availability_blocks
		WHERE clinician_id = $1
		ORDER BY day_of_week ASC, start_time ASC`, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("availability: list all weekly blocks: %w", err)
	}
	defer rows.Close()
	return scanBlocks(rows)
}

// UpdateBlockTimes applies a series-wide edit to the parent block.
func (s *Store) UpdateBlockTimes(ctx context.Context, blockID uuid.UUID, start, end schedule.ClockTime) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE availability_blocks SET start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $1`, blockID, start, end, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("availability: update block times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("availability: block %s not found", blockID)
	}
	return nil
}

// DeactivateBlock soft-deletes a series. The row is kept so historical
// exceptions retain a valid parent.
func (s *Store) DeactivateBlock(ctx context.Context, blockID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE availability_blocks SET is_active = FALSE, updated_at = $2
		WHERE id = $1`, blockID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("availability: deactivate block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("availability: block %s not found", blockID)
	}
	return nil
}

// --- exceptions ---

// Exceptions returns every exception row for one clinician and date,
// overrides and standalone additions alike.
func (s *Store) Exceptions(ctx context.Context, clinicianID uuid.UUID, date schedule.Date) ([]schedule.AvailabilityException, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinician_id, specific_date, original_block_id, start_time::text, end_time::text, is_deleted, created_at, updated_at
		FROM availability_exceptions
		WHERE clinician_id = $1 AND specific_date = $2
		ORDER BY created_at ASC`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list exceptions: %w", err)
	}
	defer rows.Close()

	var out []schedule.AvailabilityException
	for rows.Next() {
		ex, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// FindException returns the exception keyed by (clinician, date, block), or
// nil when none exists.
func (s *Store) FindException(ctx context.Context, clinicianID uuid.UUID, date schedule.Date, blockID uuid.UUID) (*schedule.AvailabilityException, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, clinician_id, specific_date, original_block_id, start_time::text, end_time::text, is_deleted, created_at, updated_at
		FROM availability_exceptions
		WHERE clinician_id = $1 AND specific_date = $2 AND original_block_id = $3`,
		clinicianID, date, blockID)
	ex, err := scanException(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// InsertException adds an override or standalone one-time row.
func (s *Store) InsertException(ctx context.Context, ex *schedule.AvailabilityException) error {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	now := time.Now().UTC()
	ex.CreatedAt, ex.UpdatedAt = now, now
	_, err := s.db.Exec(ctx, `
		INSERT INTO availability_exceptions (id, clinician_id, specific_date, original_block_id, start_time, end_time, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ex.ID, ex.ClinicianID, ex.SpecificDate, ex.OriginalBlockID, ex.StartTime, ex.EndTime, ex.IsDeleted, ex.CreatedAt, ex.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("availability: insert exception: %w", err)
	}
	return nil
}

// UpdateException rewrites an existing row in place; the partial unique index
// on (clinician_id, specific_date, original_block_id) guarantees transitions
// stay idempotent.
func (s *Store) UpdateException(ctx context.Context, ex *schedule.AvailabilityException) error {
	ex.UpdatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE availability_exceptions SET start_time = $2, end_time = $3, is_deleted = $4, updated_at = $5
		WHERE id = $1`, ex.ID, ex.StartTime, ex.EndTime, ex.IsDeleted, ex.UpdatedAt)
	if err != nil {
		return fmt.Errorf("availability: update exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("availability: exception %s not found", ex.ID)
	}
	return nil
}

// --- blackouts ---

func (s *Store) CreateTimeBlock(ctx context.Context, tb *schedule.TimeBlock) error {
	if tb.ID == uuid.Nil {
		tb.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO time_blocks (id, clinician_id, date, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tb.ID, tb.ClinicianID, tb.Date, tb.StartTime, tb.EndTime, tb.Reason,
	)
	if err != nil {
		return fmt.Errorf("availability: create time block: %w", err)
	}
	return nil
}

func (s *Store) DeleteTimeBlock(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM time_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("availability: delete time block: %w", err)
	}
	return nil
}

// TimeBlocks returns the blackouts for one clinician and date.
func (s *Store) TimeBlocks(ctx context.Context, clinicianID uuid.UUID, date schedule.Date) ([]schedule.TimeBlock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinician_id, date, start_time::text, end_time::text, reason
		FROM time_blocks
		WHERE clinician_id = $1 AND date = $2
		ORDER BY start_time ASC`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list time blocks: %w", err)
	}
	defer rows.Close()

	var out []schedule.TimeBlock
	for rows.Next() {
		var (
			tb         schedule.TimeBlock
			d          time.Time
			start, end string
		)
		if err := rows.Scan(&tb.ID, &tb.ClinicianID, &d, &start, &end, &tb.Reason); err != nil {
			return nil, fmt.Errorf("availability: scan time block: %w", err)
		}
		tb.Date = schedule.DateOf(d)
		if tb.StartTime, err = schedule.ParseClockTime(start); err != nil {
			return nil, err
		}
		if tb.EndTime, err = schedule.ParseClockTime(end); err != nil {
			return nil, err
		}
		out = append(out, tb)
	}
	return out, rows.Err()
}

// --- appointments ---

// ActiveAppointments returns scheduled and confirmed appointments for a date.
func (s *Store) ActiveAppointments(ctx context.Context, clinicianID uuid.UUID, date schedule.Date) ([]schedule.Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinician_id, client_id, date, start_time::text, end_time::text, status, created_at, updated_at
		FROM appointments
		WHERE clinician_id = $1 AND date = $2 AND status IN ('scheduled', 'confirmed')
		ORDER BY start_time ASC`, clinicianID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list appointments: %w", err)
	}
	defer rows.Close()

	var out []schedule.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAppointment loads one appointment, or nil when absent.
func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*schedule.Appointment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, clinician_id, client_id, date, start_time::text, end_time::text, status, created_at, updated_at
		FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAppointment persists a booking. The storage layer owns the no-double-
// booking guarantee; a unique/exclusion violation surfaces as
// schedule.ErrSlotConflict so the caller can re-resolve and retry.
func (s *Store) InsertAppointment(ctx context.Context, a *schedule.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (id, clinician_id, client_id, date, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ClinicianID, a.ClientID, a.Date, a.StartTime, a.EndTime, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isBookingConflict(err) {
			return schedule.ErrSlotConflict
		}
		return fmt.Errorf("availability: insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointmentStatus transitions an appointment's lifecycle state.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status schedule.AppointmentStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("availability: update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("availability: appointment %s not found", id)
	}
	return nil
}

// isBookingConflict recognizes the storage-layer double-booking guards:
// unique_violation on the slot key or exclusion_violation on the overlap
// constraint.
func isBookingConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlocks(rows pgx.Rows) ([]schedule.WeeklyAvailabilityBlock, error) {
	var out []schedule.WeeklyAvailabilityBlock
	for rows.Next() {
		var (
			b          schedule.WeeklyAvailabilityBlock
			day        int
			start, end string
		)
		if err := rows.Scan(&b.ID, &b.ClinicianID, &day, &start, &end, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("availability: scan weekly block: %w", err)
		}
		b.DayOfWeek = time.Weekday(day)
		var err error
		if b.StartTime, err = schedule.ParseClockTime(start); err != nil {
			return nil, err
		}
		if b.EndTime, err = schedule.ParseClockTime(end); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanException(row rowScanner) (schedule.AvailabilityException, error) {
	var (
		ex         schedule.AvailabilityException
		d          time.Time
		start, end *string
	)
	if err := row.Scan(&ex.ID, &ex.ClinicianID, &d, &ex.OriginalBlockID, &start, &end, &ex.IsDeleted, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
		return schedule.AvailabilityException{}, err
	}
	ex.SpecificDate = schedule.DateOf(d)
	if start != nil {
		ct, err := schedule.ParseClockTime(*start)
		if err != nil {
			return schedule.AvailabilityException{}, err
		}
		ex.StartTime = &ct
	}
	if end != nil {
		ct, err := schedule.ParseClockTime(*end)
		if err != nil {
			return schedule.AvailabilityException{}, err
		}
		ex.EndTime = &ct
	}
	return ex, nil
}

func scanAppointment(row rowScanner) (schedule.Appointment, error) {
	var (
		a          schedule.Appointment
		d          time.Time
		start, end string
		status     string
	)
	if err := row.Scan(&a.ID, &a.ClinicianID, &a.ClientID, &d, &start, &end, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return schedule.Appointment{}, err
	}
	a.Date = schedule.DateOf(d)
	a.Status = schedule.AppointmentStatus(status)
	var err error
	if a.StartTime, err = schedule.ParseClockTime(start); err != nil {
		return schedule.Appointment{}, err
	}
	if a.EndTime, err = schedule.ParseClockTime(end); err != nil {
		return schedule.Appointment{}, err
	}
	return a, nil
}
