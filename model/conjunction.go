package model

import "time"

// RiskCategory is the ordinal risk label for a conjunction.
type RiskCategory string

const (
	RiskLow      RiskCategory = "LOW"
	RiskMedium   RiskCategory = "MEDIUM"
	RiskHigh     RiskCategory = "HIGH"
	RiskCritical RiskCategory = "CRITICAL"
)

// RiskCategories returns the fixed label set, ordered from least to
// most severe.
func RiskCategories() []RiskCategory {
	return []RiskCategory{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// FeatureVector is the fixed-order feature set derived at closest
// approach. The order must exactly match what the risk model was
// trained on; Values() is the only place that order is encoded.
type FeatureVector struct {
	RelativeDistanceKm  float64
	RelativeSpeedKmS    float64
	ApproachAngleDeg    float64
	AltitudeDeltaKm     float64
	InclinationDeltaDeg float64
	TimeToApproachMin   float64
}

// Values flattens the vector in training order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.RelativeDistanceKm,
		f.RelativeSpeedKmS,
		f.ApproachAngleDeg,
		f.AltitudeDeltaKm,
		f.InclinationDeltaDeg,
		f.TimeToApproachMin,
	}
}

// FeatureNames returns the schema names in training order.
func FeatureNames() []string {
	return []string{
		"relative_distance_km",
		"relative_velocity_km_s",
		"approach_angle_deg",
		"altitude_diff_km",
		"inclination_diff_deg",
		"time_to_approach_min",
	}
}

// ConjunctionEvent records one flagged close approach. Created by the
// screener, annotated once by the classifier, never mutated after
// annotation.
type ConjunctionEvent struct {
	ObjectA string
	ObjectB string

	TCA             time.Time // refined time of closest approach
	MinSeparationKm float64

	Features FeatureVector

	// Set by the classifier.
	Risk        RiskCategory
	Probability float64
}
