package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/observability/metrics"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/settings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

var availabilityTracer = otel.Tracer("valorwell.internal.availability")

// SettingsProvider loads per-clinician scheduling settings. A provider never
// returns (nil, nil); absence falls back to defaults inside the provider.
type SettingsProvider interface {
	Get(ctx context.Context, clinicianID uuid.UUID) (*settings.AvailabilitySettings, error)
}

// Service is the application surface over the scheduling engine. It resolves
// availability, generates slots, and applies occurrence/series edits.
type Service struct {
	src        schedule.Source
	resolver   *schedule.Resolver
	generator  *schedule.SlotGenerator
	exceptions *schedule.ExceptionManager
	settings   SettingsProvider
	logger     *logging.Logger
	metrics    *metrics.SchedulingMetrics
}

// NewService wires the engine around a storage source. store must satisfy
// both schedule.Source and schedule.ExceptionStore; *Store does.
func NewService(src schedule.Source, exc schedule.ExceptionStore, sp SettingsProvider, logger *logging.Logger, m *metrics.SchedulingMetrics) *Service {
	if src == nil || exc == nil || sp == nil {
		panic("availability: source, exception store and settings provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	resolver := schedule.NewResolver(src)
	return &Service{
		src:        src,
		resolver:   resolver,
		generator:  schedule.NewSlotGenerator(resolver, src),
		exceptions: schedule.NewExceptionManager(exc, logger),
		settings:   sp,
		logger:     logger,
		metrics:    m,
	}
}

// WithNow overrides the generator's clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.generator.WithNow(now)
	return s
}

// Intervals returns the clinician's merged open intervals for one date, net
// of exceptions and blackouts, in the clinician's local clock.
func (s *Service) Intervals(ctx context.Context, clinicianID uuid.UUID, date schedule.Date) ([]schedule.ResolvedInterval, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("valorwell.clinician_id", clinicianID.String()),
		attribute.String("valorwell.date", date.String()),
	)

	started := time.Now()
	resolved, err := s.resolver.Resolve(ctx, clinicianID, date)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveResolve("error", time.Since(started).Seconds())
		return nil, err
	}
	s.metrics.ObserveResolve("ok", time.Since(started).Seconds())
	return resolved, nil
}

// Slots computes the bookable slots for one clinician and date, displayed in
// clientZone. Settings load failures degrade to defaults rather than hiding
// the whole schedule.
func (s *Service) Slots(ctx context.Context, clinicianID uuid.UUID, date schedule.Date, clientZone string) ([]schedule.BookableSlot, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("valorwell.clinician_id", clinicianID.String()),
		attribute.String("valorwell.date", date.String()),
	)

	cfg, err := s.settings.Get(ctx, clinicianID)
	if err != nil {
		s.logger.Warn("settings unavailable, using defaults", "clinician_id", clinicianID, "error", err)
		cfg = settings.DefaultSettings(clinicianID)
	}
	if clientZone == "" {
		clientZone = cfg.TimeZone
	}

	slots, err := s.generator.Generate(ctx, clinicianID, date, cfg.Engine(), clientZone)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	available := 0
	for _, sl := range slots {
		if sl.Available {
			available++
		}
	}
	s.metrics.ObserveSlots(available, len(slots)-available)
	s.logger.Debug("slots generated",
		"clinician_id", clinicianID, "date", date.String(),
		"total", len(slots), "available", available)
	return slots, nil
}

// EditBlock changes a recurring block's times for one occurrence or for the
// whole series, per scope.
func (s *Service) EditBlock(ctx context.Context, clinicianID, blockID uuid.UUID, date schedule.Date, start, end schedule.ClockTime, scope schedule.EditScope) error {
	ctx, span := availabilityTracer.Start(ctx, "availability.edit_block")
	defer span.End()
	span.SetAttributes(attribute.String("valorwell.scope", scope.String()))

	var err error
	switch scope {
	case schedule.ScopeSeries:
		err = s.exceptions.EditSeries(ctx, blockID, start, end)
	default:
		err = s.exceptions.OverrideOccurrence(ctx, clinicianID, blockID, date, start, end)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// CancelBlock removes one occurrence or deactivates the whole series, per
// scope.
func (s *Service) CancelBlock(ctx context.Context, clinicianID, blockID uuid.UUID, date schedule.Date, scope schedule.EditScope) error {
	ctx, span := availabilityTracer.Start(ctx, "availability.cancel_block")
	defer span.End()
	span.SetAttributes(attribute.String("valorwell.scope", scope.String()))

	var err error
	switch scope {
	case schedule.ScopeSeries:
		err = s.exceptions.CancelSeries(ctx, blockID)
	default:
		err = s.exceptions.CancelOccurrence(ctx, clinicianID, blockID, date)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// AddOneTime opens a standalone window on a single date, outside any
// recurring pattern.
func (s *Service) AddOneTime(ctx context.Context, clinicianID uuid.UUID, date schedule.Date, start, end schedule.ClockTime) (*schedule.AvailabilityException, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.add_one_time")
	defer span.End()
	ex, err := s.exceptions.AddOneTime(ctx, clinicianID, date, start, end)
	if err != nil {
		span.RecordError(err)
	}
	return ex, err
}

// OccurrenceState reports whether one occurrence of a block is unmodified,
// overridden or cancelled.
func (s *Service) OccurrenceState(ctx context.Context, clinicianID, blockID uuid.UUID, date schedule.Date) (schedule.OccurrenceState, error) {
	return s.exceptions.State(ctx, clinicianID, blockID, date)
}
