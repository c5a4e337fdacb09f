package main

import (
	"flex-engine/internal/debug"
	"flex-engine/internal/flex"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// summarize returns the particle count and the centroid of the particle positions.
func summarize(c *flex.Controller) (int, rl.Vector3) {
	buf := c.Buffer()
	if buf == nil || !buf.Created() {
		return 0, rl.Vector3{}
	}
	buf.Map()
	defer buf.Unmap()
	n := buf.NumParticles()
	if n == 0 {
		return 0, rl.Vector3{}
	}
	var sum rl.Vector3
	for _, p := range buf.Positions.Slice()[:n] {
		sum = rl.Vector3Add(sum, rl.NewVector3(p.X, p.Y, p.Z))
	}
	return n, rl.Vector3Scale(sum, 1/float32(n))
}

// stats reads the overlay numbers. It runs inside the draw callback, between the
// pre- and post-render hooks, so the buffer is unmapped and only counts are read.
func stats(c *flex.Controller) debug.Stats {
	s := debug.Stats{State: c.State().String(), Frame: c.Frame()}
	if lib := c.Library(); lib != nil {
		s.Device = lib.Device().Name
	}
	if buf := c.Buffer(); buf != nil && buf.Created() {
		s.Particles = buf.NumParticles()
		s.Shapes = buf.NumShapes()
		s.Rigids = buf.NumRigids()
		s.Springs = buf.NumSprings()
	}
	return s
}
