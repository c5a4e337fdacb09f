package flex

import rl "github.com/gen2brain/raylib-go/raylib"

// Device describes the compute device a library runs on. Release, when set, frees
// whatever the selector acquired to describe it.
type Device struct {
	Name    string
	Kind    string
	Backend string
	Release func()
}

// DeviceSelector picks the compute device for a solver library.
type DeviceSelector interface {
	SelectDevice() (Device, error)
}

// Backend creates solver libraries. It is the entry point of a solver implementation.
type Backend interface {
	CreateLibrary(sel DeviceSelector) (Library, error)
}

// SolverDesc sizes a solver at creation.
type SolverDesc struct {
	MaxParticles int
	MaxDiffuse   int
	MaxNeighbors int
}

// Library is an initialized solver library bound to one device.
type Library interface {
	MeshLibrary
	Device() Device
	NewSolver(desc SolverDesc) (Solver, error)
	// Shutdown frees the library, every mesh it created and the device.
	Shutdown()
}

// Solver is the opaque physics engine. Every Set and Get call takes arrays of an
// unmapped Buffer. Get calls are asynchronous: results become host-visible at the next Map.
type Solver interface {
	SetParams(p *Params)
	SetParticles(positions *Array[rl.Vector4], n int)
	SetVelocities(velocities *Array[rl.Vector3], n int)
	SetPhases(phases *Array[int32], n int)
	SetActive(indices *Array[int32], n int)
	SetRestParticles(rest *Array[rl.Vector4], n int)
	SetSprings(s SpringArrays, n int)
	SetRigids(r RigidArrays, n int)
	SetInflatables(in InflatableArrays, n int)
	SetDynamicTriangles(t TriangleArrays, n int)
	SetShapes(s ShapeArrays, n int)

	Update(dt float32, substeps int)

	GetParticles(positions *Array[rl.Vector4], n int)
	GetVelocities(velocities *Array[rl.Vector3], n int)
	GetDynamicTriangles(t TriangleArrays, n int)
	GetRigidTransforms(r RigidArrays, n int)

	Destroy()
}
