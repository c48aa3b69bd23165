package core

import (
	"math"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// EarthRadiusKm is the mean Earth radius used for altitude
// calculations (kilometres).
const EarthRadiusKm = 6371.0

// Vec3 is an ECI-style vector in kilometres (or km/s for velocities).
type Vec3 struct {
	X, Y, Z float64
}

// vec converts the plain model triple into a core vector.
func vec(m model.Vec3) Vec3 {
	return Vec3{X: m.X, Y: m.Y, Z: m.Z}
}

// Model converts back into the plain model triple.
func (v Vec3) Model() model.Vec3 {
	return model.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// AngleDegrees returns the angle between v and other in degrees,
// clamped into [0, 180]. A zero-length input yields 0.
func (v Vec3) AngleDegrees(other Vec3) float64 {
	na := v.Norm()
	nb := other.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	cos := v.Dot(other) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180.0 / math.Pi
}
