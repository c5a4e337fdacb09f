package mapgen

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// HeightfieldOptions controls procedural terrain generation.
// Resolution is the number of vertices along X and Z. Size is the world extent: width on
// X, maximum height on Y, depth on Z. Octaves, Frequency, Lacunarity and Gain shape the
// fractal noise; Frequency is in cycles per vertex.
type HeightfieldOptions struct {
	Resolution int
	Size       rl.Vector3
	Seed       int64

	Octaves    int
	Frequency  float32
	Lacunarity float32
	Gain       float32
}

// DefaultHeightfieldOptions returns gentle rolling terrain four units across.
func DefaultHeightfieldOptions() HeightfieldOptions {
	return HeightfieldOptions{
		Resolution: 24,
		Size:       rl.NewVector3(4, 0.6, 4),
		Seed:       1,
		Octaves:    4,
		Frequency:  0.08,
		Lacunarity: 2,
		Gain:       0.5,
	}
}

func (o HeightfieldOptions) withDefaults() HeightfieldOptions {
	def := DefaultHeightfieldOptions()
	if o.Resolution < 2 {
		o.Resolution = def.Resolution
	}
	if o.Size.X <= 0 || o.Size.Z <= 0 {
		o.Size.X, o.Size.Z = def.Size.X, def.Size.Z
	}
	if o.Size.Y < 0 {
		o.Size.Y = 0
	}
	if o.Octaves <= 0 {
		o.Octaves = def.Octaves
	}
	if o.Frequency <= 0 {
		o.Frequency = def.Frequency
	}
	if o.Lacunarity <= 0 {
		o.Lacunarity = def.Lacunarity
	}
	if o.Gain <= 0 {
		o.Gain = def.Gain
	}
	return o
}

// Heightfield returns a triangle mesh of a noise heightfield centered on the origin in XZ,
// with heights in [0, Size.Y]. Vertex (x, z) is at index z*Resolution+x. Triangles wind
// so their normals point up. The same options always produce the same mesh.
func Heightfield(opts HeightfieldOptions) ([]rl.Vector3, []int32) {
	o := opts.withDefaults()
	n := o.Resolution
	stepX := o.Size.X / float32(n-1)
	stepZ := o.Size.Z / float32(n-1)
	x0, z0 := -o.Size.X*0.5, -o.Size.Z*0.5

	verts := make([]rl.Vector3, 0, n*n)
	for z := range n {
		for x := range n {
			h := fractalValueNoise2D(float32(x)*o.Frequency, float32(z)*o.Frequency, o.Seed, o.Octaves, o.Lacunarity, o.Gain)
			verts = append(verts, rl.NewVector3(x0+float32(x)*stepX, h*o.Size.Y, z0+float32(z)*stepZ))
		}
	}

	indices := make([]int32, 0, 6*(n-1)*(n-1))
	for z := range n - 1 {
		for x := range n - 1 {
			i00 := int32(z*n + x)
			i10 := i00 + 1
			i01 := i00 + int32(n)
			i11 := i01 + 1
			indices = append(indices, i00, i01, i10, i10, i01, i11)
		}
	}
	return verts, indices
}

// fractalValueNoise2D layers value noise octaves. Output is in [0,1].
func fractalValueNoise2D(x, y float32, seed int64, octaves int, lacunarity, gain float32) float32 {
	var sum, maxAmp float32
	amplitude, freq := float32(1), float32(1)
	for i := range octaves {
		sum += valueNoise2D(x*freq, y*freq, int32(seed)+int32(i)) * amplitude
		maxAmp += amplitude
		amplitude *= gain
		freq *= lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return min(max(sum/maxAmp, 0), 1)
}

// valueNoise2D is smooth value noise in [0,1] over a hashed integer lattice.
func valueNoise2D(x, y float32, seed int32) float32 {
	fx, fy := math32.Floor(x), math32.Floor(y)
	ix, iy := int32(fx), int32(fy)
	sx, sy := smoothStep(x-fx), smoothStep(y-fy)

	top := lerp(hash2D(ix, iy, seed), hash2D(ix+1, iy, seed), sx)
	bottom := lerp(hash2D(ix, iy+1, seed), hash2D(ix+1, iy+1, seed), sx)
	return lerp(top, bottom, sy)
}

// hash2D maps lattice coordinates to a deterministic value in [0,1].
func hash2D(x, y, seed int32) float32 {
	n := x*374761393 + y*668265263 + seed*362437
	n = (n ^ (n >> 13)) * 1274126177
	n ^= n >> 16
	return float32(n&0x7fffffff) / 2147483647
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// smoothStep is cubic easing 3t^2 - 2t^3 on [0,1].
func smoothStep(t float32) float32 {
	t = min(max(t, 0), 1)
	return t * t * (3 - 2*t)
}
