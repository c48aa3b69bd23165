package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/conjunction-screener/model"
)

var screenStart = time.Date(2021, 10, 2, 14, 0, 0, 0, time.UTC)

// trackAlongX builds a straight-line track starting at (x0, y, 0)
// moving along +X at vx km/s, sampled every step.
func trackAlongX(id string, x0, y, vx float64, step time.Duration, n int) []model.TrajectorySample {
	samples := make([]model.TrajectorySample, n)
	for i := 0; i < n; i++ {
		dt := float64(i) * step.Seconds()
		samples[i] = model.TrajectorySample{
			ObjectID: id,
			Time:     screenStart.Add(time.Duration(i) * step),
			Position: model.Vec3{X: x0 + vx*dt, Y: y},
			Velocity: model.Vec3{X: vx},
		}
	}
	return samples
}

func TestScreenFlagsCloseApproach(t *testing.T) {
	// Head-on pass on parallel lines 2 km apart, crossing mid-window.
	a := trackAlongX("a", 0, 0, 1, time.Second, 61)
	b := trackAlongX("b", 60, 2, -1, time.Second, 61)

	s := NewScreener(50)
	event, err := s.Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event == nil {
		t.Fatalf("expected a flagged conjunction")
	}
	if event.ObjectA != "a" || event.ObjectB != "b" {
		t.Fatalf("event objects = %q/%q", event.ObjectA, event.ObjectB)
	}
	// Closest approach is at t=30s where the X positions coincide.
	if math.Abs(event.MinSeparationKm-2) > 0.01 {
		t.Fatalf("min separation = %v km, want ~2", event.MinSeparationKm)
	}
	wantTCA := screenStart.Add(30 * time.Second)
	if d := event.TCA.Sub(wantTCA); d < -time.Second || d > time.Second {
		t.Fatalf("TCA = %v, want ~%v", event.TCA, wantTCA)
	}
	if event.Features.ApproachAngleDeg < 0 || event.Features.ApproachAngleDeg > 180 {
		t.Fatalf("approach angle = %v, want within [0,180]", event.Features.ApproachAngleDeg)
	}
	if math.Abs(event.Features.RelativeSpeedKmS-2) > 1e-9 {
		t.Fatalf("relative speed = %v km/s, want 2", event.Features.RelativeSpeedKmS)
	}
}

func TestScreenStaysQuietWhenSafe(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 30)
	b := trackAlongX("b", 0, 500, 1, time.Second, 30)

	event, err := NewScreener(100).Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event != nil {
		t.Fatalf("pair 500 km apart flagged: %+v", event)
	}
}

func TestScreenFlagsIdenticalTrajectories(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 30)
	b := trackAlongX("b", 0, 0, 1, time.Second, 30)

	// Zero separation is flagged no matter how small the threshold.
	event, err := NewScreener(1e-12).Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event == nil {
		t.Fatalf("identical trajectories not flagged")
	}
	if event.MinSeparationKm != 0 {
		t.Fatalf("min separation = %v, want 0", event.MinSeparationKm)
	}
}

func TestScreenIsDeterministic(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 61)
	b := trackAlongX("b", 60, 2, -1, time.Second, 61)
	s := NewScreener(50)

	first, err := s.Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("first Screen: %v", err)
	}
	second, err := s.Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("second Screen: %v", err)
	}
	if first == nil || second == nil {
		t.Fatalf("expected both runs to flag")
	}
	if *first != *second {
		t.Fatalf("identical inputs produced different events:\n%+v\n%+v", first, second)
	}
}

func TestScreenRefinesBetweenSamples(t *testing.T) {
	// With a 10 s cadence the true crossing at t=32.75s falls between
	// samples; the parabolic fit must report a separation at or below
	// the best coarse sample.
	a := trackAlongX("a", 0, 0, 1, 10*time.Second, 7)
	b := trackAlongX("b", 65.5, 2, -1, 10*time.Second, 7)

	event, err := NewScreener(50).Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event == nil {
		t.Fatalf("expected a flagged conjunction")
	}
	coarseMin := math.Inf(1)
	for i := range a {
		d := vec(a[i].Position).DistanceTo(vec(b[i].Position))
		if d < coarseMin {
			coarseMin = d
		}
	}
	if event.MinSeparationKm > coarseMin {
		t.Fatalf("refined separation %v km exceeds coarse minimum %v km", event.MinSeparationKm, coarseMin)
	}
}

func TestScreenTruncatesToShorterSequence(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 30)
	b := trackAlongX("b", 0, 10, 1, time.Second, 20)

	event, err := NewScreener(50).Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event == nil {
		t.Fatalf("expected a flagged conjunction")
	}
}

func TestScreenRejectsMisalignedSequences(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 10)
	b := trackAlongX("b", 0, 10, 1, 2*time.Second, 10)

	if _, err := NewScreener(50).Screen(a, b, model.OrbitalElements{}, model.OrbitalElements{}); err == nil {
		t.Fatalf("expected error for misaligned timestamps")
	}
}

func TestScreenRejectsEmptySequences(t *testing.T) {
	if _, err := NewScreener(50).Screen(nil, nil, model.OrbitalElements{}, model.OrbitalElements{}); err == nil {
		t.Fatalf("expected error for empty sequences")
	}
}

func TestScreenFeatureDeltas(t *testing.T) {
	a := trackAlongX("a", 0, 0, 1, time.Second, 61)
	b := trackAlongX("b", 60, 2, -1, time.Second, 61)

	elemA := model.OrbitalElements{SemiMajorAxisKm: 6796, InclinationDeg: 51.6}
	elemB := model.OrbitalElements{SemiMajorAxisKm: 6871, InclinationDeg: 53.0}

	event, err := NewScreener(50).Screen(a, b, elemA, elemB)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if event == nil {
		t.Fatalf("expected a flagged conjunction")
	}
	if math.Abs(event.Features.AltitudeDeltaKm-75) > 1e-9 {
		t.Errorf("altitude delta = %v, want 75", event.Features.AltitudeDeltaKm)
	}
	if math.Abs(event.Features.InclinationDeltaDeg-1.4) > 1e-9 {
		t.Errorf("inclination delta = %v, want 1.4", event.Features.InclinationDeltaDeg)
	}
	if event.Features.TimeToApproachMin < 0 {
		t.Errorf("time to approach = %v min, want non-negative", event.Features.TimeToApproachMin)
	}
}
