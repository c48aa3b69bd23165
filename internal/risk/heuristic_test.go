package risk

import (
	"math"
	"testing"

	"github.com/signalsfoundry/conjunction-screener/model"
)

func TestHeuristicDistanceLadder(t *testing.T) {
	cases := []struct {
		distanceKm float64
		want       model.RiskCategory
	}{
		{0, model.RiskCritical},
		{4.9, model.RiskCritical},
		{5, model.RiskHigh},
		{24.9, model.RiskHigh},
		{25, model.RiskMedium},
		{49.9, model.RiskMedium},
		{50, model.RiskLow},
		{99, model.RiskLow},
		{250, model.RiskLow},
	}

	var h Heuristic
	for _, tc := range cases {
		got, _, err := h.Predict(model.FeatureVector{RelativeDistanceKm: tc.distanceKm})
		if err != nil {
			t.Fatalf("Predict(%v): %v", tc.distanceKm, err)
		}
		if got != tc.want {
			t.Errorf("Predict(%v km) = %v, want %v", tc.distanceKm, got, tc.want)
		}
	}
}

func TestHeuristicProbabilityDecay(t *testing.T) {
	var h Heuristic

	_, p0, err := h.Predict(model.FeatureVector{RelativeDistanceKm: 0})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p0 != 1 {
		t.Fatalf("probability at 0 km = %v, want 1", p0)
	}

	_, p10, _ := h.Predict(model.FeatureVector{RelativeDistanceKm: 10})
	if math.Abs(p10-math.Exp(-1)) > 1e-12 {
		t.Fatalf("probability at 10 km = %v, want e^-1", p10)
	}

	_, pFar, _ := h.Predict(model.FeatureVector{RelativeDistanceKm: 100.1})
	if pFar != 0 {
		t.Fatalf("probability beyond 100 km = %v, want 0", pFar)
	}

	// Probability never grows with distance.
	prev := 2.0
	for d := 0.0; d <= 120; d += 5 {
		_, p, _ := h.Predict(model.FeatureVector{RelativeDistanceKm: d})
		if p < 0 || p > 1 {
			t.Fatalf("probability at %v km = %v, outside [0,1]", d, p)
		}
		if p > prev {
			t.Fatalf("probability increased from %v to %v at %v km", prev, p, d)
		}
		prev = p
	}
}
