package flex

import "errors"

var (
	// ErrNoDevice is returned when no compute device satisfies the selector.
	ErrNoDevice = errors.New("flex: no suitable compute device")
	// ErrNotLoaded is returned by lifecycle calls made before a successful OnLoad.
	ErrNotLoaded = errors.New("flex: library not loaded")
	// ErrNotBuilt is returned by frame updates made before a successful Reset.
	ErrNotBuilt = errors.New("flex: simulation not built")
	// ErrCapacity is returned when an append would exceed a committed buffer capacity.
	ErrCapacity = errors.New("flex: buffer capacity exceeded")
	// ErrInvalidRigid is returned for rigid groups that are empty or reference unallocated particles.
	ErrInvalidRigid = errors.New("flex: invalid rigid group")
	// ErrInvalidConstraint is returned for springs, triangles and inflatables that reference
	// unallocated particles or triangles.
	ErrInvalidConstraint = errors.New("flex: invalid constraint")
)
