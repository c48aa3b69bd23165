package model

import "time"

// ManeuverPlan is the terminal artifact of the planner: a velocity
// change for one object of a flagged pair, applied at BurnTime.
// Callers must check Converged before trusting the plan; a
// non-convergent plan means no safe low-cost maneuver was found within
// the iteration budget, which is a valid outcome rather than an error.
type ManeuverPlan struct {
	ObjectID string

	DeltaV          Vec3    // m/s, ECI components
	DeltaVMagnitude float64 // m/s; doubles as the fuel cost proxy

	MissDistanceKm float64 // coast-model separation estimate at closest approach
	SafetyMarginKm float64 // margin the solve targeted

	BurnTime   time.Time
	Converged  bool
	Iterations int
}
