package risk

import (
	"math"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// Heuristic is the rule-based fallback used when no trained artifact
// is configured. It reproduces the distance ladder the synthetic
// training data was generated from, so its labels stay consistent
// with the learned model's.
type Heuristic struct{}

// Distance ladder boundaries in kilometres.
const (
	criticalBelowKm = 5.0
	highBelowKm     = 25.0
	mediumBelowKm   = 50.0
	negligibleKm    = 100.0
)

// Predict classifies purely on separation distance. The probability
// decays exponentially with distance and is zero beyond 100 km.
func (Heuristic) Predict(features model.FeatureVector) (model.RiskCategory, float64, error) {
	d := features.RelativeDistanceKm

	var category model.RiskCategory
	switch {
	case d < criticalBelowKm:
		category = model.RiskCritical
	case d < highBelowKm:
		category = model.RiskHigh
	case d < mediumBelowKm:
		category = model.RiskMedium
	default:
		category = model.RiskLow
	}

	probability := 0.0
	if d <= negligibleKm {
		probability = math.Exp(-d / 10)
	}
	return category, probability, nil
}
