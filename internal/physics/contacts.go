package physics

import (
	"flex-engine/internal/flex"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// cell is a spatial hash bucket key.
type cell [3]int32

func (w *World) cellSize() float32 {
	if r := w.params.SolidRestDistance; r > 0 {
		return max(r, w.params.FluidRestDistance)
	}
	return w.params.Radius
}

func cellOf(p rl.Vector4, size float32) cell {
	return cell{
		int32(math32.Floor(p.X / size)),
		int32(math32.Floor(p.Y / size)),
		int32(math32.Floor(p.Z / size)),
	}
}

// buildGrid buckets active particles by predicted position. The neighbourhood is fixed
// for the whole substep.
func (w *World) buildGrid() {
	clear(w.grid)
	size := w.cellSize()
	if size <= 0 {
		return
	}
	for _, i := range w.active {
		c := cellOf(w.predicted[i], size)
		w.grid[c] = append(w.grid[c], i)
	}
}

// collides reports whether particles i and j interact, following their phases.
func (w *World) collides(i, j int32) bool {
	if w.predicted[i].W == 0 && w.predicted[j].W == 0 {
		return false
	}
	pi, pj := w.phase[i], w.phase[j]
	if flex.PhaseGroup(pi) != flex.PhaseGroup(pj) {
		return true
	}
	if !flex.PhaseHas(pi, flex.PhaseSelfCollide) || !flex.PhaseHas(pj, flex.PhaseSelfCollide) {
		return false
	}
	if flex.PhaseHas(pi, flex.PhaseSelfCollideFilter) && int(max(i, j)) < len(w.rest) {
		d := rl.Vector3Distance(xyz(w.rest[i]), xyz(w.rest[j]))
		if d < w.contactDistance(i, j) {
			return false
		}
	}
	return true
}

func (w *World) contactDistance(i, j int32) float32 {
	p := &w.params
	if p.FluidRestDistance > 0 && flex.PhaseHas(w.phase[i], flex.PhaseFluid) && flex.PhaseHas(w.phase[j], flex.PhaseFluid) {
		return p.FluidRestDistance
	}
	return p.SolidRestDistance
}

// solveParticleContacts separates overlapping particle pairs, visiting at most
// MaxNeighbors contacts per particle.
func (w *World) solveParticleContacts() {
	size := w.cellSize()
	if size <= 0 || len(w.grid) == 0 {
		return
	}
	for _, i := range w.active {
		w.contactsOf(i, size)
	}
}

func (w *World) contactsOf(i int32, size float32) {
	home := cellOf(w.predicted[i], size)
	found := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				for _, j := range w.grid[cell{home[0] + dx, home[1] + dy, home[2] + dz}] {
					if j <= i || !w.collides(i, j) {
						continue
					}
					w.projectDistance(i, j, w.contactDistance(i, j), 1, true)
					found++
					if found >= w.desc.MaxNeighbors {
						return
					}
				}
			}
		}
	}
}
