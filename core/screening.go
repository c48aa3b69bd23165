package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// Screener scans pairs of trajectory sample sequences for close
// approaches. It is stateless and deterministic: identical inputs
// produce bit-identical events.
type Screener struct {
	// DangerThresholdKm is the separation below which a pair is
	// flagged as a conjunction.
	DangerThresholdKm float64
}

// NewScreener constructs a screener with the given danger threshold.
func NewScreener(thresholdKm float64) *Screener {
	return &Screener{DangerThresholdKm: thresholdKm}
}

// Screen computes the minimum separation between two sample sequences
// covering the same window and returns a ConjunctionEvent when it
// falls under the danger threshold, or nil when the pair stays safe.
//
// The sequences must be sampled at the same timestamps; a length
// mismatch is tolerated by truncating to the shorter one, a timestamp
// mismatch is an error. A separation of exactly zero is always
// flagged, whatever the threshold.
func (s *Screener) Screen(a, b []model.TrajectorySample, elemA, elemB model.OrbitalElements) (*model.ConjunctionEvent, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return nil, fmt.Errorf("empty sample sequence")
	}
	for i := 0; i < n; i++ {
		if !a[i].Time.Equal(b[i].Time) {
			return nil, fmt.Errorf("sample sequences not aligned at index %d: %s vs %s",
				i, a[i].Time.Format(time.RFC3339Nano), b[i].Time.Format(time.RFC3339Nano))
		}
	}

	minIdx := 0
	minDist := math.Inf(1)
	for i := 0; i < n; i++ {
		d := vec(a[i].Position).DistanceTo(vec(b[i].Position))
		if d < minDist {
			minDist = d
			minIdx = i
		}
	}

	tca, minSep := refineClosestApproach(a[:n], b[:n], minIdx, minDist)

	if !(minSep < s.DangerThresholdKm || minSep == 0) {
		return nil, nil
	}

	relPos := vec(b[minIdx].Position).Sub(vec(a[minIdx].Position))
	relVel := vec(b[minIdx].Velocity).Sub(vec(a[minIdx].Velocity))

	features := model.FeatureVector{
		RelativeDistanceKm:  minSep,
		RelativeSpeedKmS:    relVel.Norm(),
		ApproachAngleDeg:    relPos.AngleDegrees(relVel),
		AltitudeDeltaKm:     math.Abs(elemA.SemiMajorAxisKm - elemB.SemiMajorAxisKm),
		InclinationDeltaDeg: math.Abs(elemA.InclinationDeg - elemB.InclinationDeg),
		TimeToApproachMin:   tca.Sub(a[0].Time).Minutes(),
	}

	return &model.ConjunctionEvent{
		ObjectA:         a[0].ObjectID,
		ObjectB:         b[0].ObjectID,
		TCA:             tca,
		MinSeparationKm: minSep,
		Features:        features,
	}, nil
}

// refineClosestApproach fits a parabola through the separation values
// bracketing the coarse minimum and returns the refined time of
// closest approach and separation. At the window edges, or when the
// parabola degenerates, the coarse sample wins.
func refineClosestApproach(a, b []model.TrajectorySample, minIdx int, minDist float64) (time.Time, float64) {
	coarseTCA := a[minIdx].Time
	if minIdx == 0 || minIdx == len(a)-1 {
		return coarseTCA, minDist
	}

	dm := vec(a[minIdx-1].Position).DistanceTo(vec(b[minIdx-1].Position))
	d0 := minDist
	dp := vec(a[minIdx+1].Position).DistanceTo(vec(b[minIdx+1].Position))

	denom := dm - 2*d0 + dp
	if denom <= 0 {
		// Flat or concave bracket: parabola has no interior minimum.
		return coarseTCA, minDist
	}

	// Vertex offset in units of the sample step, clamped to the bracket.
	offset := 0.5 * (dm - dp) / denom
	if offset > 1 {
		offset = 1
	} else if offset < -1 {
		offset = -1
	}

	refined := d0 - 0.125*(dm-dp)*(dm-dp)/denom
	if refined < 0 {
		refined = 0
	}
	if refined > minDist {
		refined = minDist
	}

	step := a[minIdx+1].Time.Sub(a[minIdx].Time)
	tca := coarseTCA.Add(time.Duration(offset * float64(step)))
	return tca, refined
}
