package flex

// Instance contributes particles, shapes and constraints to the shared buffer.
// The controller calls Initialize and PostInitialize once per Reset, and Sync once per
// frame, always with buf mapped. Instances must keep only indices or Ranges between calls,
// never slices into buf: a Reset reallocates every array.
type Instance interface {
	// Initialize allocates the instance's particles and appends its shapes and constraints.
	Initialize(buf *Buffer) error
	// PostInitialize runs after rigid local positions have been computed.
	PostInitialize(buf *Buffer) error
	// Sync reads back the last solver step and writes any external changes for the next one.
	Sync(buf *Buffer) error
}

// ParamsContributor is implemented by instances that adjust solver constants, such as the
// particle radius or fluid mode, before the controller derives defaults.
type ParamsContributor interface {
	ContributeParams(p *Params)
}
