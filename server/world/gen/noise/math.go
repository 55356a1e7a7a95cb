package noise

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// gradients holds the 16 gradient directions a lattice corner may point in.
// The last four repeat earlier entries so that the table can be indexed with a
// 4-bit hash.
var gradients = [16]mgl64.Vec3{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
	{1, 1, 0}, {0, -1, 1}, {-1, 1, 0}, {0, -1, -1},
}

// grad returns the dot product of the gradient selected by hash and the
// offset passed. Every product is rounded explicitly so the compiler cannot
// fuse it into the following addition.
func grad(hash int32, x, y, z float64) float64 {
	g := &gradients[hash&15]
	return float64(g[0]*x) + float64(g[1]*y) + float64(g[2]*z)
}

func fade(v float64) float64 {
	return float64(float64(v*v)*v) * (float64(v*float64(float64(v*6)-15)) + 10)
}

func lerp(delta, start, end float64) float64 {
	return start + float64(delta*(end-start))
}

func lerp2(dx, dy, a, b, c, d float64) float64 {
	return lerp(dy, lerp(dx, a, b), lerp(dx, c, d))
}

func lerp3(dx, dy, dz, a, b, c, d, e, f, g, h float64) float64 {
	return lerp(dz, lerp2(dx, dy, a, b, c, d), lerp2(dx, dy, e, f, g, h))
}

// floorInt32 converts an already floored value to int32, saturating at the
// bounds of the type instead of wrapping.
func floorInt32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	return int32(clamp(v, math.MinInt32, math.MaxInt32))
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
