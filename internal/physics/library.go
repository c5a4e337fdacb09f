package physics

import (
	"fmt"
	"log/slog"
	"sync"

	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Backend is the CPU reference implementation of flex.Backend.
type Backend struct {
	Log *slog.Logger
}

// CreateLibrary selects a device through sel (the host CPU when sel is nil) and returns
// a library bound to it.
func (b Backend) CreateLibrary(sel flex.DeviceSelector) (flex.Library, error) {
	dev := flex.Device{Name: "host", Kind: "cpu", Backend: "physics"}
	if sel != nil {
		d, err := sel.SelectDevice()
		if err != nil {
			return nil, fmt.Errorf("selecting device: %w", err)
		}
		dev = d
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	return &Library{device: dev, log: log, meshes: map[flex.MeshID]*mesh{}}, nil
}

// mesh is a standalone triangle mesh resource.
type mesh struct {
	positions []rl.Vector3
	indices   []int32
	bounds    rl.BoundingBox
}

// Library owns the device description and the triangle mesh resources shared by its solvers.
type Library struct {
	mu     sync.Mutex
	device flex.Device
	log    *slog.Logger
	meshes map[flex.MeshID]*mesh
	nextID flex.MeshID
	closed bool
}

func (l *Library) Device() flex.Device { return l.device }

// CreateTriangleMesh copies desc into a new mesh resource.
func (l *Library) CreateTriangleMesh(desc flex.TriangleMeshDesc) (flex.MeshID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, fmt.Errorf("creating triangle mesh: library shut down")
	}
	if len(desc.Indices)%3 != 0 {
		return 0, fmt.Errorf("triangle mesh index count %d is not a multiple of 3", len(desc.Indices))
	}
	for _, i := range desc.Indices {
		if i < 0 || int(i) >= len(desc.Positions) {
			return 0, fmt.Errorf("triangle mesh index %d outside %d vertices", i, len(desc.Positions))
		}
	}
	l.nextID++
	l.meshes[l.nextID] = &mesh{
		positions: append([]rl.Vector3(nil), desc.Positions...),
		indices:   append([]int32(nil), desc.Indices...),
		bounds:    desc.Bounds,
	}
	return l.nextID, nil
}

// DestroyTriangleMesh frees a mesh. Unknown IDs are ignored.
func (l *Library) DestroyTriangleMesh(id flex.MeshID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.meshes, id)
}

// NumMeshes returns the number of live mesh resources.
func (l *Library) NumMeshes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.meshes)
}

func (l *Library) mesh(id flex.MeshID) *mesh {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meshes[id]
}

// NewSolver returns a World sized by desc.
func (l *Library) NewSolver(desc flex.SolverDesc) (flex.Solver, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("creating solver: library shut down")
	}
	if desc.MaxParticles <= 0 {
		return nil, fmt.Errorf("creating solver: max particles must be positive, got %d", desc.MaxParticles)
	}
	l.log.Debug("physics: solver created", "max_particles", desc.MaxParticles, "max_neighbors", desc.MaxNeighbors)
	return NewWorld(l, desc), nil
}

// Shutdown frees every mesh and releases the device.
func (l *Library) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	clear(l.meshes)
	if l.device.Release != nil {
		l.device.Release()
	}
}
