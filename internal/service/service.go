package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spectrum-deconfliction/core"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/logging"
	"github.com/signalsfoundry/spectrum-deconfliction/internal/observability"
	"github.com/signalsfoundry/spectrum-deconfliction/kb"
	"github.com/signalsfoundry/spectrum-deconfliction/model"
	"github.com/signalsfoundry/spectrum-deconfliction/store"
)

// Service orchestrates the deconfliction engines and stores behind the
// public operations. Domain outcomes (DENIED, CONFLICT, FAILED) are
// returned as results, never as errors; errors are reserved for malformed
// input.
type Service struct {
	log     logging.Logger
	clock   Clock
	ids     IDGenerator
	policy  *core.PolicyEngine
	engine  *core.DeconflictionEngine
	allocs  *store.AllocationStore
	reqs    *store.RequestStore
	emits   *store.EmitterStore
	known   *kb.Catalog
	metrics *observability.Collector
	tracer  trace.Tracer
}

// Options carries the service's collaborators. Nil fields fall back to
// working defaults; stores are created when absent.
type Options struct {
	Logger      logging.Logger
	Clock       Clock
	IDs         IDGenerator
	Policy      *core.PolicyEngine
	Engine      *core.DeconflictionEngine
	Allocations *store.AllocationStore
	Requests    *store.RequestStore
	Emitters    *store.EmitterStore
	Known       *kb.Catalog
	Metrics     *observability.Collector
}

// New assembles a Service from the provided options.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	if opts.Policy == nil {
		opts.Policy = core.DefaultPolicy()
	}
	if opts.Engine == nil {
		opts.Engine = core.NewDeconflictionEngine()
	}
	if opts.Allocations == nil {
		opts.Allocations = store.NewAllocationStore()
	}
	if opts.Requests == nil {
		opts.Requests = store.NewRequestStore()
	}
	if opts.Emitters == nil {
		opts.Emitters = store.NewEmitterStore()
	}
	if opts.Known == nil {
		opts.Known = kb.DefaultCatalog()
	}
	return &Service{
		log:     opts.Logger,
		clock:   opts.Clock,
		ids:     opts.IDs,
		policy:  opts.Policy,
		engine:  opts.Engine,
		allocs:  opts.Allocations,
		reqs:    opts.Requests,
		emits:   opts.Emitters,
		known:   opts.Known,
		metrics: opts.Metrics,
		tracer:  otel.Tracer("spectrum-deconfliction/service"),
	}
}

// Allocations exposes the allocation store for the expiry sweeper and
// metrics wiring.
func (s *Service) Allocations() *store.AllocationStore { return s.allocs }

// RequestDeconfliction runs the full decision pipeline for a candidate
// allocation: policy validation, conflict checking, priority override, and
// alternative-frequency search. The decision is recorded before returning.
func (s *Service) RequestDeconfliction(ctx context.Context, req *model.DeconflictionRequest) (*model.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "RequestDeconfliction",
		trace.WithAttributes(
			attribute.String("asset_id", req.AssetID),
			attribute.Float64("frequency_mhz", req.FrequencyMHz),
			attribute.String("priority", string(req.Priority)),
		))
	defer span.End()

	s.log.Info(ctx, "deconfliction requested",
		logging.String("request_id", req.RequestID),
		logging.String("asset_id", req.AssetID),
		logging.Float64("frequency_mhz", req.FrequencyMHz),
		logging.String("priority", string(req.Priority)),
	)

	s.reqs.AddRequest(req)

	// The quota count includes the request just recorded.
	flashCount := s.reqs.CountByPriority(model.PriorityFlash)
	if violations := s.policy.ValidateRequest(req, flashCount); len(violations) > 0 {
		decision := &model.Decision{
			RequestID:     req.RequestID,
			Status:        model.StatusDenied,
			Justification: "Policy violations: " + strings.Join(violations, "; "),
		}
		s.reqs.AddDecision(decision)
		s.metrics.RecordDecision(string(decision.Status), nil)
		s.log.Warn(ctx, "request denied by policy",
			logging.String("request_id", req.RequestID),
			logging.Int("violations", len(violations)),
		)
		return decision, nil
	}

	candidates := s.allocs.ActiveAt(req.StartTime)
	conflicts := s.engine.CheckConflicts(req, candidates)

	decision := &model.Decision{
		RequestID: req.RequestID,
		Conflicts: conflicts,
	}
	switch {
	case len(conflicts) == 0:
		decision.Status = model.StatusApproved
		decision.Justification = "No conflicts detected. Request approved."
		decision.AuthorizationID = s.ids.NewID()
	case s.engine.EvaluatePriorityOverride(req, conflicts):
		decision.Status = model.StatusApproved
		decision.Justification = fmt.Sprintf(
			"High priority override: %s. Request approved despite %d low-severity conflict(s).",
			req.Priority, len(conflicts))
		decision.AuthorizationID = s.ids.NewID()
	default:
		decision.Status = model.StatusConflict
		decision.Justification = fmt.Sprintf("Conflicts detected: %d issue(s) found.", len(conflicts))
		decision.AlternativeFrequencies = s.engine.SuggestAlternatives(req, candidates, 3)
	}

	s.reqs.AddDecision(decision)
	s.metrics.RecordDecision(string(decision.Status), conflictTypes(conflicts))
	s.log.Info(ctx, "deconfliction complete",
		logging.String("request_id", req.RequestID),
		logging.String("status", string(decision.Status)),
		logging.Int("conflicts", len(conflicts)),
	)
	return decision, nil
}

// CommitParams carries the commit-step inputs for AllocateFrequency.
type CommitParams struct {
	AssetID         string
	FrequencyMHz    float64
	BandwidthKHz    float64
	PowerDBm        float64
	Location        model.Location
	DurationMinutes int
	AuthorizationID string
	Priority        model.Priority
	Purpose         string
}

// AllocateFrequency commits an approved decision into the allocation
// store. The committed window starts at commit time, not at the original
// request's start time. Authorization ids are checked against stored
// APPROVED decisions but are not consumed, so a second commit with the
// same id also succeeds.
func (s *Service) AllocateFrequency(ctx context.Context, p CommitParams) (*model.AllocationResult, error) {
	ctx, span := s.tracer.Start(ctx, "AllocateFrequency",
		trace.WithAttributes(
			attribute.String("asset_id", p.AssetID),
			attribute.Float64("frequency_mhz", p.FrequencyMHz),
		))
	defer span.End()

	if s.reqs.FindAuthorization(p.AuthorizationID) == nil {
		result := &model.AllocationResult{
			Status:  model.AllocationFailed,
			Message: fmt.Sprintf("Invalid or missing authorization ID: %s", p.AuthorizationID),
		}
		s.metrics.RecordAllocation(string(result.Status))
		s.log.Error(ctx, "allocation failed",
			logging.String("asset_id", p.AssetID),
			logging.String("reason", "invalid_authorization"),
		)
		return result, nil
	}

	if p.DurationMinutes <= 0 {
		return nil, &model.FieldError{Field: "duration_minutes", Reason: "must be positive"}
	}

	now := s.clock.Now()
	end := now.Add(time.Duration(p.DurationMinutes) * time.Minute)
	alloc, err := model.NewAllocation(s.ids.NewID(), p.AssetID, p.FrequencyMHz, p.BandwidthKHz,
		p.PowerDBm, p.Location, now, end, p.Priority, p.Purpose)
	if err != nil {
		return nil, err
	}
	if err := s.allocs.Add(alloc); err != nil {
		return nil, err
	}

	s.metrics.RecordAllocation(string(model.AllocationSuccess))
	s.metrics.SetActiveAllocations(s.allocs.Len())
	s.log.Info(ctx, "allocation committed",
		logging.String("allocation_id", alloc.AllocationID),
		logging.String("asset_id", p.AssetID),
		logging.Float64("frequency_mhz", p.FrequencyMHz),
	)

	return &model.AllocationResult{
		AllocationID: alloc.AllocationID,
		Status:       model.AllocationSuccess,
		ExpiresAt:    &end,
		Message:      fmt.Sprintf("Frequency %g MHz allocated to %s", p.FrequencyMHz, p.AssetID),
	}, nil
}

// GetInterferenceReport aggregates interference at a location from every
// allocation currently active in the frequency range. Per-source powers
// are summed in linear milliwatts; with no sources the thermal noise
// floor is reported.
func (s *Service) GetInterferenceReport(ctx context.Context, loc model.Location, fr model.FrequencyRange) (*model.InterferenceReport, error) {
	ctx, span := s.tracer.Start(ctx, "GetInterferenceReport")
	defer span.End()

	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := fr.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	allocations := s.allocs.ByFrequencyRange(fr.MinMHz, fr.MaxMHz, now)

	sources := make([]model.InterferenceSource, 0, len(allocations))
	totalPowerMW := 0.0
	for _, alloc := range allocations {
		distanceKm := core.DistanceKm(loc, alloc.Location)
		powerDBm, level := core.InterferenceLevel(alloc.PowerDBm, alloc.FrequencyMHz, fr.Center(), distanceKm)
		sources = append(sources, model.InterferenceSource{
			SourceID:          alloc.AssetID,
			FrequencyMHz:      alloc.FrequencyMHz,
			EstimatedPowerDBm: powerDBm,
			AzimuthDegrees:    core.AzimuthDegrees(loc, alloc.Location),
			InterferenceLevel: level,
		})
		totalPowerMW += math.Pow(10, powerDBm/10)
	}

	noiseFloor := core.ThermalNoiseFloorDBm
	if totalPowerMW > 0 {
		noiseFloor = 10 * math.Log10(totalPowerMW)
	}

	s.log.Info(ctx, "interference report generated", logging.Int("sources", len(sources)))

	return &model.InterferenceReport{
		ReportID:           s.ids.NewID(),
		Location:           loc,
		FrequencyRange:     fr,
		Sources:            sources,
		TotalNoiseFloorDBm: noiseFloor,
		Timestamp:          now,
	}, nil
}

// GetSpectrumPlan lists allocations active within the window. The area
// polygon is recorded on the plan but does not filter the allocation set;
// only the time window is applied.
func (s *Service) GetSpectrumPlan(ctx context.Context, areaGeoJSON string, start, end time.Time) (*model.SpectrumPlan, error) {
	ctx, span := s.tracer.Start(ctx, "GetSpectrumPlan")
	defer span.End()

	if end.Before(start) {
		return nil, &model.FieldError{Field: "end_time", Reason: "must not be before start_time"}
	}

	var plan []*model.Allocation
	for _, alloc := range s.allocs.ActiveAt(start) {
		if !alloc.EndTime.Before(start) && !alloc.StartTime.After(end) {
			plan = append(plan, alloc)
		}
	}

	s.log.Info(ctx, "spectrum plan generated", logging.Int("allocations", len(plan)))

	return &model.SpectrumPlan{
		PlanID:      s.ids.NewID(),
		AreaGeoJSON: areaGeoJSON,
		StartTime:   start,
		EndTime:     end,
		Allocations: plan,
		GeneratedAt: s.clock.Now(),
	}, nil
}

func conflictTypes(conflicts []model.Conflict) []string {
	if len(conflicts) == 0 {
		return nil
	}
	types := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		types = append(types, string(c.Type))
	}
	return types
}
