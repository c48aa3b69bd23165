package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/conjunction-screener/model"
)

func issObject(t *testing.T) *model.ObjectDefinition {
	t.Helper()
	elements, noradID, err := ParseTLE(issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseTLE: %v", err)
	}
	return &model.ObjectDefinition{
		ID:       "iss",
		Name:     "ISS (ZARYA)",
		Type:     model.ObjectSatellite,
		TLELine1: issLine1,
		TLELine2: issLine2,
		NoradID:  noradID,
		Elements: elements,
	}
}

func TestSampleWindowEnd(t *testing.T) {
	start := time.Date(2021, 10, 2, 14, 0, 0, 0, time.UTC)
	w := SampleWindow{Start: start, Cadence: time.Minute, Samples: 10}
	if got, want := w.End(), start.Add(9*time.Minute); !got.Equal(want) {
		t.Fatalf("End = %v, want %v", got, want)
	}
	if got := (SampleWindow{Start: start}).End(); !got.Equal(start) {
		t.Fatalf("End with no samples = %v, want start", got)
	}
}

func TestPropagateProducesPlausibleOrbit(t *testing.T) {
	obj := issObject(t)
	prop, err := NewPropagator(obj)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	window := SampleWindow{
		Start:   obj.Elements.Epoch,
		Cadence: time.Minute,
		Samples: 90,
	}
	samples, err := prop.Propagate(window)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(samples) != window.Samples {
		t.Fatalf("got %d samples, want %d", len(samples), window.Samples)
	}

	for i, s := range samples {
		if s.ObjectID != "iss" {
			t.Fatalf("sample %d object id = %q", i, s.ObjectID)
		}
		if i > 0 && !s.Time.After(samples[i-1].Time) {
			t.Fatalf("sample %d time %v not after %v", i, s.Time, samples[i-1].Time)
		}
		r := vec(s.Position).Norm()
		// LEO: a couple hundred km of altitude, give or take drag.
		if r < EarthRadiusKm+200 || r > EarthRadiusKm+600 {
			t.Fatalf("sample %d radius %v km outside LEO band", i, r)
		}
		v := vec(s.Velocity).Norm()
		if v < 6 || v > 9 {
			t.Fatalf("sample %d speed %v km/s implausible for LEO", i, v)
		}
	}
}

func TestPropagateIsDeterministic(t *testing.T) {
	obj := issObject(t)
	prop, err := NewPropagator(obj)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	window := SampleWindow{Start: obj.Elements.Epoch, Cadence: 30 * time.Second, Samples: 20}

	first, err := prop.Propagate(window)
	if err != nil {
		t.Fatalf("first Propagate: %v", err)
	}
	second, err := prop.Propagate(window)
	if err != nil {
		t.Fatalf("second Propagate: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d differs between identical runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPropagateRejectsBadWindow(t *testing.T) {
	prop, err := NewPropagator(issObject(t))
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	if _, err := prop.Propagate(SampleWindow{Start: time.Now(), Cadence: time.Minute, Samples: 0}); err == nil {
		t.Fatalf("expected error for zero samples")
	}
	if _, err := prop.Propagate(SampleWindow{Start: time.Now(), Cadence: 0, Samples: 5}); err == nil {
		t.Fatalf("expected error for zero cadence")
	}
}

func TestNewPropagatorRejectsBadInput(t *testing.T) {
	if _, err := NewPropagator(nil); !errors.Is(err, ErrInvalidElements) {
		t.Fatalf("NewPropagator(nil) = %v, want ErrInvalidElements", err)
	}
	bad := issObject(t)
	bad.TLELine2 = bad.TLELine2[:40]
	if _, err := NewPropagator(bad); !errors.Is(err, ErrInvalidElements) {
		t.Fatalf("NewPropagator with truncated TLE = %v, want ErrInvalidElements", err)
	}
}

func TestStateAtMatchesWindowSample(t *testing.T) {
	obj := issObject(t)
	prop, err := NewPropagator(obj)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	at := obj.Elements.Epoch.Add(10 * time.Minute)
	state, err := prop.StateAt(at)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if !state.Time.Equal(at.UTC()) {
		t.Fatalf("state time = %v, want %v", state.Time, at.UTC())
	}

	window := SampleWindow{Start: obj.Elements.Epoch, Cadence: 10 * time.Minute, Samples: 2}
	samples, err := prop.Propagate(window)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if d := vec(state.Position).DistanceTo(vec(samples[1].Position)); math.Abs(d) > 1e-9 {
		t.Fatalf("StateAt position differs from window sample by %v km", d)
	}
}
