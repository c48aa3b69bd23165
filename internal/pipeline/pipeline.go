// Package pipeline runs the screening sequence: propagate every
// catalogued object, scan all pairs for close approaches, score the
// flagged ones, and optionally solve avoidance maneuvers. The stages
// are pure transformations over explicit data; the only shared state
// is the read-only catalog and predictor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/conjunction-screener/core"
	"github.com/signalsfoundry/conjunction-screener/internal/logging"
	"github.com/signalsfoundry/conjunction-screener/internal/maneuver"
	"github.com/signalsfoundry/conjunction-screener/internal/observability"
	"github.com/signalsfoundry/conjunction-screener/internal/risk"
	"github.com/signalsfoundry/conjunction-screener/kb"
	"github.com/signalsfoundry/conjunction-screener/model"
)

const tracerName = "github.com/signalsfoundry/conjunction-screener/internal/pipeline"

// Config carries the per-run knobs.
type Config struct {
	DangerThresholdKm float64
	SafetyMarginKm    float64
	Cadence           time.Duration
	Samples           int

	// PlanManeuvers enables the planner for events whose separation
	// falls under the safety margin.
	PlanManeuvers bool

	// SkipDebrisPairs drops debris-vs-debris comparisons from the
	// scan; nobody can maneuver either side of those pairs.
	SkipDebrisPairs bool
}

// ObjectFailure records one object excluded from a run.
type ObjectFailure struct {
	ObjectID string
	Err      error
}

// Report is the outcome of one full-fleet screening run. Reported and
// then discarded; nothing here is persisted.
type Report struct {
	RunID   string
	Start   time.Time
	Elapsed time.Duration

	Objects       int
	PairsScreened int

	Events   []model.ConjunctionEvent
	Plans    []model.ManeuverPlan
	Excluded []ObjectFailure
}

// Pipeline wires the four stages together.
type Pipeline struct {
	catalog   *kb.Catalog
	screener  *core.Screener
	predictor risk.Predictor
	planner   *maneuver.Planner

	log     logging.Logger
	metrics *observability.ScreeningCollector
	cfg     Config
}

// New constructs a pipeline. metrics may be nil; log may be nil.
func New(catalog *kb.Catalog, predictor risk.Predictor, cfg Config, log logging.Logger, metrics *observability.ScreeningCollector) (*Pipeline, error) {
	if catalog == nil {
		return nil, fmt.Errorf("pipeline: catalog is required")
	}
	if predictor == nil {
		return nil, fmt.Errorf("pipeline: predictor is required")
	}
	if cfg.DangerThresholdKm <= 0 {
		return nil, fmt.Errorf("pipeline: danger threshold must be positive, got %v", cfg.DangerThresholdKm)
	}
	if cfg.Samples <= 0 || cfg.Cadence <= 0 {
		return nil, fmt.Errorf("pipeline: samples and cadence must be positive, got %d / %v", cfg.Samples, cfg.Cadence)
	}
	if cfg.SafetyMarginKm <= 0 {
		cfg.SafetyMarginKm = maneuver.DefaultSafetyMarginKm
	}
	if log == nil {
		log = logging.Noop()
	}

	planner := maneuver.NewPlanner(cfg.SafetyMarginKm)

	return &Pipeline{
		catalog:   catalog,
		screener:  core.NewScreener(cfg.DangerThresholdKm),
		predictor: predictor,
		planner:   planner,
		log:       log,
		metrics:   metrics,
		cfg:       cfg,
	}, nil
}

// Planner exposes the planner so callers can tune the delta-v bound
// or iteration cap before running.
func (p *Pipeline) Planner() *maneuver.Planner { return p.planner }

// Run screens the whole catalog over a window starting at start.
// Per-object propagation errors exclude only that object; a feature
// schema mismatch aborts the run, since every later pair would fail
// the same way.
func (p *Pipeline) Run(ctx context.Context, start time.Time) (*Report, error) {
	ctx, log := logging.WithRunLogger(ctx, p.log)
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "screening.run")
	defer span.End()

	began := time.Now()
	report := &Report{RunID: logging.RunIDFromContext(ctx), Start: start}

	objects := p.catalog.ListObjects()
	report.Objects = len(objects)
	window := core.SampleWindow{Start: start, Cadence: p.cfg.Cadence, Samples: p.cfg.Samples}

	trajectories := p.propagateAll(ctx, tracer, log, objects, window, report)

	if err := p.screenPairs(ctx, tracer, log, objects, trajectories, report); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if p.cfg.PlanManeuvers {
		p.planAll(ctx, tracer, log, objects, report)
	}

	report.Elapsed = time.Since(began)
	if p.metrics != nil {
		p.metrics.ObserveRun(report.Objects, report.PairsScreened, report.Elapsed)
	}
	span.SetAttributes(
		attribute.Int("screening.objects", report.Objects),
		attribute.Int("screening.pairs", report.PairsScreened),
		attribute.Int("screening.conjunctions", len(report.Events)),
	)
	log.Info(ctx, "screening run complete",
		logging.Int("objects", report.Objects),
		logging.Int("pairs", report.PairsScreened),
		logging.Int("conjunctions", len(report.Events)),
		logging.Int("excluded", len(report.Excluded)),
		logging.Any("elapsed", report.Elapsed),
	)
	return report, nil
}

// propagateAll produces a trajectory per object, excluding the ones
// that fail and recording why.
func (p *Pipeline) propagateAll(ctx context.Context, tracer trace.Tracer, log logging.Logger,
	objects []*model.ObjectDefinition, window core.SampleWindow, report *Report) map[string][]model.TrajectorySample {

	ctx, span := tracer.Start(ctx, "screening.propagate")
	defer span.End()

	trajectories := make(map[string][]model.TrajectorySample, len(objects))
	for _, obj := range objects {
		prop, err := core.NewPropagator(obj)
		if err == nil {
			var samples []model.TrajectorySample
			samples, err = prop.Propagate(window)
			if err == nil {
				trajectories[obj.ID] = samples
				continue
			}
		}

		kind := "invalid_elements"
		if errors.Is(err, core.ErrPropagationDiverged) {
			kind = "propagation_diverged"
		}
		if p.metrics != nil {
			p.metrics.CountPropagationFailure(kind)
		}
		report.Excluded = append(report.Excluded, ObjectFailure{ObjectID: obj.ID, Err: err})
		log.Warn(ctx, "object excluded from screening",
			logging.String("object_id", obj.ID),
			logging.String("kind", kind),
			logging.String("error", err.Error()),
		)
	}
	return trajectories
}

// screenPairs scans all pairs with both trajectories present,
// classifying every flagged conjunction as it appears.
func (p *Pipeline) screenPairs(ctx context.Context, tracer trace.Tracer, log logging.Logger,
	objects []*model.ObjectDefinition, trajectories map[string][]model.TrajectorySample, report *Report) error {

	ctx, span := tracer.Start(ctx, "screening.scan")
	defer span.End()

	for i := 0; i < len(objects); i++ {
		for j := i + 1; j < len(objects); j++ {
			a, b := objects[i], objects[j]
			if p.cfg.SkipDebrisPairs && a.IsDebris() && b.IsDebris() {
				continue
			}
			ta, ok := trajectories[a.ID]
			if !ok {
				continue
			}
			tb, ok := trajectories[b.ID]
			if !ok {
				continue
			}

			report.PairsScreened++
			event, err := p.screener.Screen(ta, tb, a.Elements, b.Elements)
			if err != nil {
				log.Warn(ctx, "pair screening failed",
					logging.String("object_a", a.ID),
					logging.String("object_b", b.ID),
					logging.String("error", err.Error()),
				)
				continue
			}
			if event == nil {
				continue
			}

			category, probability, err := p.predictor.Predict(event.Features)
			if err != nil {
				if errors.Is(err, risk.ErrFeatureSchemaMismatch) {
					return fmt.Errorf("classify %s vs %s: %w", a.ID, b.ID, err)
				}
				log.Warn(ctx, "classification failed",
					logging.String("object_a", a.ID),
					logging.String("object_b", b.ID),
					logging.String("error", err.Error()),
				)
				continue
			}
			event.Risk = category
			event.Probability = probability

			if p.metrics != nil {
				p.metrics.CountConjunction(string(category))
			}
			p.catalog.NotifyConjunction(*event)
			log.Info(ctx, "conjunction flagged",
				logging.String("object_a", a.ID),
				logging.String("object_b", b.ID),
				logging.Float64("min_separation_km", event.MinSeparationKm),
				logging.String("risk", string(category)),
				logging.Float64("probability", probability),
			)
			report.Events = append(report.Events, *event)
		}
	}
	return nil
}

// planAll runs the maneuver planner for every event whose separation
// falls under the safety margin. Planner errors only skip that event.
func (p *Pipeline) planAll(ctx context.Context, tracer trace.Tracer, log logging.Logger,
	objects []*model.ObjectDefinition, report *Report) {

	ctx, span := tracer.Start(ctx, "screening.plan")
	defer span.End()

	byID := make(map[string]*model.ObjectDefinition, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}

	for _, event := range report.Events {
		if event.MinSeparationKm >= p.cfg.SafetyMarginKm {
			continue
		}
		target, other := pickManeuverTarget(byID[event.ObjectA], byID[event.ObjectB])
		if target == nil || other == nil {
			continue
		}

		plan, err := p.planner.Plan(maneuver.Request{Target: target, Other: other, Event: event})
		if err != nil {
			log.Warn(ctx, "maneuver planning failed",
				logging.String("object_a", event.ObjectA),
				logging.String("object_b", event.ObjectB),
				logging.String("error", err.Error()),
			)
			continue
		}
		if p.metrics != nil {
			p.metrics.CountManeuverSolve(plan.Converged)
		}
		log.Info(ctx, "maneuver planned",
			logging.String("object_id", plan.ObjectID),
			logging.Float64("delta_v_ms", plan.DeltaVMagnitude),
			logging.Float64("miss_distance_km", plan.MissDistanceKm),
			logging.Any("converged", plan.Converged),
		)
		report.Plans = append(report.Plans, plan)
	}
}

// pickManeuverTarget prefers maneuvering the active satellite of a
// pair; debris cannot burn. A debris-only pair maneuvers nothing and
// only exists when SkipDebrisPairs is off.
func pickManeuverTarget(a, b *model.ObjectDefinition) (target, other *model.ObjectDefinition) {
	if a == nil || b == nil {
		return nil, nil
	}
	if a.IsDebris() && !b.IsDebris() {
		return b, a
	}
	if a.IsDebris() && b.IsDebris() {
		return nil, nil
	}
	return a, b
}
