package model

import "time"

// Vec3 is a plain component triple. Positions are ECI kilometres,
// velocities ECI kilometres per second; the owning field says which.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// TrajectorySample is one propagated state for an object.
// Produced by the propagator; read-only downstream.
type TrajectorySample struct {
	ObjectID string
	Time     time.Time
	Position Vec3
	Velocity Vec3
}
