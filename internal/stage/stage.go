package stage

// Stage is a unit of per-frame engine work. The host calls OnPipelineCreated once the
// render pipeline exists (and again to rebuild), then OnPreRenderUpdate before drawing and
// OnPostRenderUpdate after drawing every frame, and OnUnload at shutdown.
type Stage interface {
	OnPipelineCreated() error
	OnPreRenderUpdate() error
	OnPostRenderUpdate() error
	OnUnload()
}
