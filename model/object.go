package model

// ObjectType is a free-form category for a tracked object.
type ObjectType string

const (
	ObjectSatellite ObjectType = "SATELLITE"
	ObjectDebris    ObjectType = "DEBRIS"
)

// ObjectDefinition represents one tracked orbiting object.
// The TLE lines drive propagation; Elements are derived from them at
// load time and used only for feature deltas, never fed back into
// propagation.
type ObjectDefinition struct {
	ID   string
	Name string
	Type ObjectType

	TLELine1 string
	TLELine2 string

	NoradID uint32 // parsed from the TLE; zero when unavailable

	Elements OrbitalElements
}

// IsDebris reports whether the object is catalogued as debris.
func (o *ObjectDefinition) IsDebris() bool { return o.Type == ObjectDebris }
