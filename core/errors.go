package core

import "errors"

// ErrInvalidElements reports malformed or unphysical orbital input.
// Fatal for the object it concerns; screening of the rest of the
// fleet continues.
var ErrInvalidElements = errors.New("invalid orbital elements")

// ErrPropagationDiverged reports a numerical failure inside the SGP4
// propagator for the requested epoch span. The object is excluded
// from further screening.
var ErrPropagationDiverged = errors.New("propagation diverged")
