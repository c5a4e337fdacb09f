package flex

import (
	"errors"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// State is the controller lifecycle state.
type State int

const (
	StateUnloaded State = iota
	StateLibraryReady
	StateBuilt
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLibraryReady:
		return "library-ready"
	case StateBuilt:
		return "built"
	case StateRunning:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config holds what the controller commits to when it builds a scene.
type Config struct {
	Capacity Capacity
	// DT is the simulated time advanced per frame.
	DT float32
	// Substeps is the number of solver substeps per frame.
	Substeps int
	// FloorTilt is added to the up vector of the floor plane.
	FloorTilt rl.Vector3
	// SceneBounds, when set, is merged into the particle and shape bounds the
	// boundary planes are derived from.
	SceneBounds *rl.BoundingBox
}

// Controller owns the buffer and solver and drives the per-frame lifecycle:
// OnLoad, Reset, then PreRenderUpdate and PostRenderUpdate once per frame, and OnUnload.
// All calls must come from one goroutine.
type Controller struct {
	cfg      Config
	backend  Backend
	selector DeviceSelector
	log      *slog.Logger

	state     State
	lib       Library
	solver    Solver
	buf       *Buffer
	instances []Instance

	base          Params
	params        Params
	bounds        rl.BoundingBox
	paramsChanged bool
	inFrame       bool
	frame         uint64
}

// NewController returns an unloaded controller using base as the user-specified parameters.
// A nil logger means slog.Default().
func NewController(cfg Config, base Params, backend Backend, sel DeviceSelector, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DT <= 0 {
		cfg.DT = 1.0 / 60.0
	}
	if cfg.Substeps <= 0 {
		cfg.Substeps = 2
	}
	return &Controller{
		cfg:      cfg,
		backend:  backend,
		selector: sel,
		log:      log,
		base:     base,
		params:   base,
	}
}

// AddInstance registers an instance. Registration order fixes the order instances
// allocate particles, and so their index ranges. New instances take part from the next Reset.
func (c *Controller) AddInstance(inst Instance) {
	c.instances = append(c.instances, inst)
}

// NumInstances returns the number of registered instances.
func (c *Controller) NumInstances() int { return len(c.instances) }

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Buffer returns the current simulation buffer, nil before the first Reset.
func (c *Controller) Buffer() *Buffer { return c.buf }

// Library returns the solver library, nil when unloaded.
func (c *Controller) Library() Library { return c.lib }

// Frame returns the number of completed solver steps since the last Reset.
func (c *Controller) Frame() uint64 { return c.frame }

// Bounds returns the scene bounds the collision planes were derived from.
func (c *Controller) Bounds() rl.BoundingBox { return c.bounds }

// Params returns a copy of the derived parameters the solver is using.
func (c *Controller) Params() Params { return c.params }

// ParamsChanged reports whether the parameters will be re-pushed on the next step.
func (c *Controller) ParamsChanged() bool { return c.paramsChanged }

// SetParams replaces the user-specified parameters. If a scene is built the defaults are
// re-derived against its bounds and the whole block is pushed before the next step.
func (c *Controller) SetParams(p Params) {
	c.base = p
	if c.state < StateBuilt {
		c.params = p
		return
	}
	c.params = c.deriveParams()
	c.paramsChanged = true
}

// OnLoad selects a device and creates the solver library. On failure the controller
// stays unloaded and the error is logged and returned.
func (c *Controller) OnLoad() error {
	if c.state != StateUnloaded {
		return nil
	}
	lib, err := c.backend.CreateLibrary(c.selector)
	if err != nil {
		c.log.Error("flex: library init failed", "err", err)
		return fmt.Errorf("flex: creating library: %w", err)
	}
	c.lib = lib
	c.state = StateLibraryReady
	dev := lib.Device()
	c.log.Info("flex: library ready", "device", dev.Name, "kind", dev.Kind, "backend", dev.Backend)
	return nil
}

// Reset tears down any previous scene and builds a new one from the registered instances.
// It must not be called between PreRenderUpdate and PostRenderUpdate.
func (c *Controller) Reset() error {
	if c.inFrame {
		panic("flex: Reset called while a frame update is in flight")
	}
	if c.state == StateUnloaded {
		return ErrNotLoaded
	}
	capacity := c.cfg.Capacity.WithDefaults()
	if capacity.MaxParticles <= 0 {
		return fmt.Errorf("flex: max particles must be positive, got %d", capacity.MaxParticles)
	}
	c.teardown()

	buf := NewBuffer()
	buf.SetMeshes(c.lib)
	buf.Create(capacity)
	c.buf = buf

	buf.Map()
	buf.ZeroRunArrays()
	for i, inst := range c.instances {
		if err := inst.Initialize(buf); err != nil {
			c.teardown()
			return fmt.Errorf("flex: initializing instance %d: %w", i, err)
		}
	}

	n := buf.NumParticles()
	c.fillRestAndActive(n)
	c.bounds = c.sceneBounds()
	c.params = c.deriveParams()

	rg := &buf.Rigids
	rg.LocalPositions.resize(rg.Indices.Len())
	RigidLocalPositions(buf.RestPositions.Slice(), n, rg.Offsets.Slice(), rg.Indices.Slice(), rg.LocalPositions.Slice())

	for i, inst := range c.instances {
		if err := inst.PostInitialize(buf); err != nil {
			c.teardown()
			return fmt.Errorf("flex: post-initializing instance %d: %w", i, err)
		}
	}
	buf.Unmap()
	buf.takeShapesDirty()

	solver, err := c.lib.NewSolver(SolverDesc{
		MaxParticles: capacity.MaxParticles,
		MaxDiffuse:   capacity.MaxDiffuse,
		MaxNeighbors: capacity.MaxNeighbors,
	})
	if err != nil {
		c.teardown()
		c.log.Error("flex: solver creation failed", "err", err)
		return fmt.Errorf("flex: creating solver: %w", err)
	}
	c.solver = solver
	c.upload()

	c.state = StateBuilt
	c.paramsChanged = false
	c.frame = 0
	c.log.Info("flex: scene built",
		"particles", n,
		"shapes", buf.NumShapes(),
		"rigids", buf.NumRigids(),
		"springs", buf.NumSprings(),
		"triangles", buf.NumTriangles(),
		"inflatables", buf.NumInflatables())
	return nil
}

// PreRenderUpdate maps the buffer, lets every instance sync in registration order and
// unmaps again. Mapping is where the previous step's readbacks become visible.
func (c *Controller) PreRenderUpdate() error {
	if c.state < StateBuilt {
		return ErrNotBuilt
	}
	c.state = StateRunning
	c.inFrame = true

	c.buf.Map()
	var errs []error
	for i, inst := range c.instances {
		if err := inst.Sync(c.buf); err != nil {
			errs = append(errs, fmt.Errorf("instance %d: %w", i, err))
		}
	}
	c.buf.Unmap()
	if len(errs) > 0 {
		c.inFrame = false
		return fmt.Errorf("flex: sync: %w", errors.Join(errs...))
	}
	return nil
}

// PostRenderUpdate pushes particle state, re-pushes parameters and shapes when they changed,
// steps the solver and requests the readbacks the next PreRenderUpdate will observe.
func (c *Controller) PostRenderUpdate() error {
	if c.state < StateBuilt {
		return ErrNotBuilt
	}
	c.state = StateRunning
	c.inFrame = false

	buf, s := c.buf, c.solver
	n := buf.NumParticles()
	if n > 0 {
		s.SetParticles(buf.Positions, n)
		s.SetVelocities(buf.Velocities, n)
		s.SetPhases(buf.Phases, n)
		s.SetActive(buf.ActiveIndices, buf.ActiveIndices.Len())
	}
	if c.paramsChanged {
		s.SetParams(&c.params)
		c.paramsChanged = false
		c.log.Debug("flex: params pushed", "frame", c.frame)
	}
	if buf.takeShapesDirty() && buf.NumShapes() > 0 {
		s.SetShapes(buf.Shapes, buf.NumShapes())
	}

	s.Update(c.cfg.DT, c.cfg.Substeps)
	c.frame++

	if n > 0 {
		s.GetParticles(buf.Positions, n)
		s.GetVelocities(buf.Velocities, n)
	}
	if k := buf.NumTriangles(); k > 0 {
		s.GetDynamicTriangles(buf.Triangles, k)
	}
	if k := buf.NumRigids(); k > 0 {
		s.GetRigidTransforms(buf.Rigids, k)
	}
	return nil
}

// OnUnload destroys the scene and shuts the library down. It is safe to call in any state.
func (c *Controller) OnUnload() {
	c.teardown()
	if c.lib != nil {
		c.lib.Shutdown()
		c.lib = nil
	}
	if c.state != StateUnloaded {
		c.log.Info("flex: unloaded")
	}
	c.state = StateUnloaded
	c.inFrame = false
}

func (c *Controller) teardown() {
	if c.solver != nil {
		c.solver.Destroy()
		c.solver = nil
	}
	if c.buf != nil {
		if c.buf.Created() && c.buf.Mapped() {
			c.buf.Unmap()
		}
		c.buf.Destroy()
		c.buf = nil
	}
	if c.state > StateLibraryReady {
		c.state = StateLibraryReady
	}
}

// fillRestAndActive copies initial positions into unset rest positions and activates
// every allocated particle.
func (c *Controller) fillRestAndActive(n int) {
	buf := c.buf
	pos, rest := buf.Positions.Slice(), buf.RestPositions.Slice()
	for i := range n {
		if rest[i] == (rl.Vector4{}) {
			rest[i] = pos[i]
		}
	}
	buf.ActiveIndices.resize(n)
	active := buf.ActiveIndices.Slice()
	for i := range n {
		active[i] = int32(i)
	}
}

// sceneBounds unions particle bounds, shape bounds and the configured scene bounds,
// expanded by the collision distance. The buffer must be mapped.
func (c *Controller) sceneBounds() rl.BoundingBox {
	buf := c.buf
	box, ok := ParticleBounds(buf.Positions.Slice(), buf.NumParticles())
	merge := func(b rl.BoundingBox) {
		if !ok {
			box, ok = b, true
			return
		}
		box = UnionBounds(box, b)
	}
	sh := &buf.Shapes
	for i := range buf.NumShapes() {
		p := sh.Positions.At(i)
		merge(ShapeBounds(sh.Geometry.At(i), rl.NewVector3(p.X, p.Y, p.Z), sh.Rotations.At(i)))
	}
	if c.cfg.SceneBounds != nil {
		merge(*c.cfg.SceneBounds)
	}
	if !ok {
		return rl.BoundingBox{}
	}
	return box
}

// deriveParams applies instance contributions and defaults on top of a copy of the base
// parameters, then derives the boundary planes from the scene bounds.
func (c *Controller) deriveParams() Params {
	p := c.base
	for _, inst := range c.instances {
		if pc, ok := inst.(ParamsContributor); ok {
			pc.ContributeParams(&p)
		}
	}
	p.Derive()
	p.DerivePlanes(ExpandBounds(c.bounds, p.CollisionDistance), c.cfg.FloorTilt)
	return p
}

// upload performs the initial bulk push, skipping empty categories.
func (c *Controller) upload() {
	buf, s := c.buf, c.solver
	s.SetParams(&c.params)
	if n := buf.NumParticles(); n > 0 {
		s.SetParticles(buf.Positions, n)
		s.SetVelocities(buf.Velocities, n)
		s.SetPhases(buf.Phases, n)
		s.SetRestParticles(buf.RestPositions, n)
		s.SetActive(buf.ActiveIndices, buf.ActiveIndices.Len())
	}
	if n := buf.NumSprings(); n > 0 {
		s.SetSprings(buf.Springs, n)
	}
	if n := buf.NumRigids(); n > 0 {
		s.SetRigids(buf.Rigids, n)
	}
	if n := buf.NumInflatables(); n > 0 {
		s.SetInflatables(buf.Inflatables, n)
	}
	if n := buf.NumTriangles(); n > 0 {
		s.SetDynamicTriangles(buf.Triangles, n)
	}
	if n := buf.NumShapes(); n > 0 {
		s.SetShapes(buf.Shapes, n)
	}
}
