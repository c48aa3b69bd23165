package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// SampleWindow describes a propagation request: Samples states taken
// every Cadence starting at Start.
type SampleWindow struct {
	Start   time.Time
	Cadence time.Duration
	Samples int
}

// End returns the timestamp of the last sample in the window.
func (w SampleWindow) End() time.Time {
	if w.Samples <= 0 {
		return w.Start
	}
	return w.Start.Add(time.Duration(w.Samples-1) * w.Cadence)
}

// Propagator produces trajectory samples for one object via SGP4.
// The force model is owned entirely by go-satellite; this package only
// validates input and checks output plausibility.
//
// Propagate() in go-satellite takes the Satellite by value, so SGP4
// error codes are not visible to the caller. Failures are detected by
// checking the output for NaN/Inf and implausible magnitudes instead.
type Propagator struct {
	objectID string
	sat      satellite.Satellite
}

// NewPropagator validates the object's TLE and initialises the SGP4
// model. Unphysical element ranges surface as ErrInvalidElements.
func NewPropagator(obj *model.ObjectDefinition) (*Propagator, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: nil object", ErrInvalidElements)
	}
	// ParseTLE performs both structural and range validation; the
	// derived elements themselves are the catalog loader's concern.
	if _, _, err := ParseTLE(obj.TLELine1, obj.TLELine2); err != nil {
		return nil, fmt.Errorf("object %s: %w", obj.ID, err)
	}

	sat := satellite.TLEToSat(obj.TLELine1, obj.TLELine2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("object %s: %w: sgp4 init code=%d %s",
			obj.ID, ErrInvalidElements, sat.Error, sat.ErrorStr)
	}
	return &Propagator{objectID: obj.ID, sat: sat}, nil
}

// Propagate produces exactly window.Samples samples with monotonically
// increasing timestamps. A divergent state anywhere in the window
// fails the whole request with ErrPropagationDiverged.
func (p *Propagator) Propagate(window SampleWindow) ([]model.TrajectorySample, error) {
	if window.Samples <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", window.Samples)
	}
	if window.Cadence <= 0 {
		return nil, fmt.Errorf("cadence must be positive, got %v", window.Cadence)
	}

	samples := make([]model.TrajectorySample, 0, window.Samples)
	for i := 0; i < window.Samples; i++ {
		t := window.Start.Add(time.Duration(i) * window.Cadence).UTC()
		year, month, day := t.Date()
		hour, min, sec := t.Clock()

		pos, vel := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
		if err := checkState(pos, vel); err != nil {
			return nil, fmt.Errorf("object %s at %s: %w: %v",
				p.objectID, t.Format(time.RFC3339), ErrPropagationDiverged, err)
		}

		samples = append(samples, model.TrajectorySample{
			ObjectID: p.objectID,
			Time:     t,
			Position: model.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
			Velocity: model.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
		})
	}
	return samples, nil
}

// StateAt returns a single propagated state, used by the maneuver
// planner for spot re-propagation.
func (p *Propagator) StateAt(t time.Time) (model.TrajectorySample, error) {
	samples, err := p.Propagate(SampleWindow{Start: t, Cadence: time.Second, Samples: 1})
	if err != nil {
		return model.TrajectorySample{}, err
	}
	return samples[0], nil
}

// checkState rejects NaN/Inf output and radii that no Earth orbit can
// have (below the surface or beyond ~500000 km).
func checkState(pos, vel satellite.Vector3) error {
	for _, v := range []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite state component")
		}
	}
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if r < EarthRadiusKm || r > 500000 {
		return fmt.Errorf("implausible radius %.1f km", r)
	}
	return nil
}
