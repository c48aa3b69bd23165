// Package maneuver computes collision-avoidance burns for flagged
// conjunctions. Each solve is single-shot and stateless: a bounded
// penalised minimisation of delta-v magnitude subject to the
// re-propagated miss distance clearing the safety margin.
package maneuver

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/signalsfoundry/conjunction-screener/core"
	"github.com/signalsfoundry/conjunction-screener/model"
)

// Defaults mirror the configuration the planner was tuned with.
const (
	DefaultSafetyMarginKm = 25.0
	DefaultMaxDeltaVMs    = 10.0
	DefaultMaxIterations  = 100

	// missToleranceKm is the slack allowed when re-checking the margin
	// constraint after the solve.
	missToleranceKm = 1e-3
)

// Penalty weights for the constraint terms. The margin shortfall is in
// kilometres and delta-v in m/s, so a moderate weight already makes
// constraint violation dominate the fuel term.
const (
	marginPenaltyWeight = 50.0
	boundPenaltyWeight  = 50.0
)

// Planner solves for a minimal velocity change restoring a safe miss
// distance. Stateless between calls; safe to share.
type Planner struct {
	SafetyMarginKm float64
	MaxDeltaVMs    float64
	MaxIterations  int
}

// NewPlanner constructs a planner with the given safety margin,
// filling unset knobs with defaults.
func NewPlanner(safetyMarginKm float64) *Planner {
	if safetyMarginKm <= 0 {
		safetyMarginKm = DefaultSafetyMarginKm
	}
	return &Planner{
		SafetyMarginKm: safetyMarginKm,
		MaxDeltaVMs:    DefaultMaxDeltaVMs,
		MaxIterations:  DefaultMaxIterations,
	}
}

// Request describes one solve: which object burns, which it must
// avoid, and the conjunction being mitigated. A zero BurnTime places
// the burn at the start of the event's screening window.
type Request struct {
	Target *model.ObjectDefinition
	Other  *model.ObjectDefinition
	Event  model.ConjunctionEvent

	BurnTime time.Time
}

// Plan solves for the avoidance burn. Exhausting the iteration budget
// without satisfying the margin yields a plan with Converged=false —
// that is an expected outcome the caller must check, not an error.
// Errors are reserved for broken input: invalid elements, propagation
// failure, or a burn time at/after closest approach.
func (p *Planner) Plan(req Request) (model.ManeuverPlan, error) {
	if req.Target == nil || req.Other == nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan: target and other objects are required")
	}

	burnTime := req.BurnTime
	if burnTime.IsZero() {
		burnTime = req.Event.TCA.Add(-time.Duration(req.Event.Features.TimeToApproachMin * float64(time.Minute)))
	}
	leadSeconds := req.Event.TCA.Sub(burnTime).Seconds()
	if leadSeconds <= 0 {
		return model.ManeuverPlan{}, fmt.Errorf("plan: burn time %s is not before closest approach %s",
			burnTime.Format(time.RFC3339), req.Event.TCA.Format(time.RFC3339))
	}

	targetProp, err := core.NewPropagator(req.Target)
	if err != nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan target %s: %w", req.Target.ID, err)
	}
	otherProp, err := core.NewPropagator(req.Other)
	if err != nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan other %s: %w", req.Other.ID, err)
	}

	targetState, err := targetProp.StateAt(burnTime)
	if err != nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan target %s: %w", req.Target.ID, err)
	}
	otherAtTCA, err := otherProp.StateAt(req.Event.TCA)
	if err != nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan other %s: %w", req.Other.ID, err)
	}

	pos1 := core.Vec3{X: targetState.Position.X, Y: targetState.Position.Y, Z: targetState.Position.Z}
	vel1 := core.Vec3{X: targetState.Velocity.X, Y: targetState.Velocity.Y, Z: targetState.Velocity.Z}
	pos2 := core.Vec3{X: otherAtTCA.Position.X, Y: otherAtTCA.Position.Y, Z: otherAtTCA.Position.Z}

	// missKm coasts the maneuvered object over the lead time with the
	// adjusted velocity and measures separation from the other
	// object's SGP4 state at closest approach. dv is in m/s.
	//
	// The coast is force-free: no gravity acts over the lead time,
	// so the predicted miss grows with the lead and overstates the
	// true separation well beyond a few minutes of coast.
	// MissDistanceKm is a screening figure for the solve, not an
	// ephemeris; keep burn times close to the approach when the
	// absolute number matters.
	missKm := func(dv []float64) float64 {
		adjusted := vel1.Add(core.Vec3{X: dv[0] / 1000, Y: dv[1] / 1000, Z: dv[2] / 1000})
		predicted := pos1.Add(adjusted.Scale(leadSeconds))
		return predicted.DistanceTo(pos2)
	}

	margin := p.SafetyMarginKm
	maxDv := p.MaxDeltaVMs
	objective := func(dv []float64) float64 {
		fuel := math.Sqrt(dv[0]*dv[0] + dv[1]*dv[1] + dv[2]*dv[2])
		cost := fuel
		if shortfall := margin - missKm(dv); shortfall > 0 {
			cost += marginPenaltyWeight * shortfall * shortfall
		}
		if over := fuel - maxDv; over > 0 {
			cost += boundPenaltyWeight * over * over
		}
		return cost
	}

	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
	}

	// Small prograde burn as the starting point.
	x0 := []float64{0, 0, 0}
	if speed := vel1.Norm(); speed > 0 {
		unit := vel1.Scale(1 / speed)
		x0 = []float64{unit.X * 2, unit.Y * 2, unit.Z * 2}
	}

	settings := &optimize.Settings{MajorIterations: p.maxIterations()}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})

	dv := x0
	iterations := 0
	if result != nil {
		dv = result.X
		iterations = result.Stats.MajorIterations
	}
	if err != nil && result == nil {
		return model.ManeuverPlan{}, fmt.Errorf("plan %s vs %s: optimizer: %w",
			req.Target.ID, req.Other.ID, err)
	}

	magnitude := math.Sqrt(dv[0]*dv[0] + dv[1]*dv[1] + dv[2]*dv[2])
	finalMiss := missKm(dv)
	converged := finalMiss+missToleranceKm >= margin && magnitude <= maxDv+missToleranceKm

	return model.ManeuverPlan{
		ObjectID:        req.Target.ID,
		DeltaV:          model.Vec3{X: dv[0], Y: dv[1], Z: dv[2]},
		DeltaVMagnitude: magnitude,
		MissDistanceKm:  finalMiss,
		SafetyMarginKm:  margin,
		BurnTime:        burnTime,
		Converged:       converged,
		Iterations:      iterations,
	}, nil
}

func (p *Planner) maxIterations() int {
	if p.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}
