package model

import "time"

// OrbitalElements is a classical element set at an epoch.
// Immutable once derived; identifies one object's trajectory.
type OrbitalElements struct {
	SemiMajorAxisKm float64
	Eccentricity    float64
	InclinationDeg  float64
	RAANDeg         float64
	ArgPerigeeDeg   float64
	MeanAnomalyDeg  float64
	Epoch           time.Time
}
