package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// updateInterval: only refresh text every N frames to reduce allocations.
	updateInterval = 30
)

// Stats is the simulation summary shown in the top-left corner.
type Stats struct {
	State     string
	Device    string
	Frame     uint64
	Particles int
	Shapes    int
	Rigids    int
	Springs   int
}

// String formats the stats line.
func (s Stats) String() string {
	return fmt.Sprintf("%s on %s | frame %d | particles %d | shapes %d | rigids %d | springs %d",
		s.State, s.Device, s.Frame, s.Particles, s.Shapes, s.Rigids, s.Springs)
}

// Debug draws the on-screen overlays. All overlays are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowStats    bool
	// Stats supplies the stats line; nil hides it.
	Stats func() Stats

	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastStats    string
	lastMemStats runtime.MemStats
}

// New returns a Debug system with all overlays hidden.
func New() *Debug {
	return &Debug{}
}

// refresh recomputes overlay text every updateInterval frames, and immediately for an
// overlay that has never been drawn.
func (d *Debug) refresh(fps int32) {
	d.frameCount++
	update := d.frameCount%updateInterval == 0
	if d.ShowFPS && d.lastFpsText == "" || d.ShowMemAlloc && d.lastMemText == "" || d.ShowStats && d.lastStats == "" {
		update = true
	}
	if !update {
		return
	}
	if d.ShowFPS {
		d.lastFpsText = fmt.Sprintf("FPS: %d", fps)
	}
	if d.ShowMemAlloc {
		runtime.ReadMemStats(&d.lastMemStats)
		d.lastMemText = fmt.Sprintf("Mem: %.2f MiB", float64(d.lastMemStats.Alloc)/(1024*1024))
	}
	if d.ShowStats && d.Stats != nil {
		d.lastStats = d.Stats().String()
	}
}

// Draw renders the enabled overlays. Call after the 3D scene in the draw loop.
// FPS and memory are drawn top-right in green, the stats line top-left in white.
func (d *Debug) Draw() {
	d.refresh(rl.GetFPS())

	if d.ShowStats && d.lastStats != "" {
		rl.DrawText(d.lastStats, padding, padding, fontSize, rl.RayWhite)
	}

	screenW := int32(rl.GetScreenWidth())
	y := int32(padding)
	for _, line := range []struct {
		show bool
		text string
	}{
		{d.ShowFPS, d.lastFpsText},
		{d.ShowMemAlloc, d.lastMemText},
	} {
		if !line.show || line.text == "" {
			continue
		}
		w := rl.MeasureText(line.text, fontSize)
		rl.DrawText(line.text, screenW-w-padding, y, fontSize, rl.Green)
		y += lineHeight
	}
}
